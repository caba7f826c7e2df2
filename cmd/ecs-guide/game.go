package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/plus3/ecsapp/ecs"
)

// Components

type Player struct {
	Name string
}

type Score struct {
	Value int
}

// Resources

type GameState struct {
	CurrentRound  int
	TotalPlayers  int
	WinningPlayer string
}

type GameRules struct {
	WinningScore int
	MaxRounds    int
	MaxPlayers   int
}

// Rng is the game's source of coin flips.
type Rng struct {
	*rand.Rand
}

func (r *Rng) flip() bool {
	return r.Float64() > 0.5
}

// Console is where game messages are printed.
type Console struct {
	io.Writer
}

func (c *Console) say(format string, args ...any) {
	fmt.Fprintf(c.Writer, format+"\n", args...)
}

// Sets ordering a round.
const (
	BeforeRound ecs.SystemSet = "BeforeRound"
	Round       ecs.SystemSet = "Round"
	AfterRound  ecs.SystemSet = "AfterRound"
)

type players = ecs.Query[struct {
	*Player
	*Score
}]

func printMessageSystem(frame *ecs.UpdateFrame) {
	ecs.MustResource[Console](frame.Resources()).say("This game is fun!")
}

type startupSystem struct {
	State ecs.Res[GameState]
}

func (s *startupSystem) Execute(frame *ecs.UpdateFrame) error {
	frame.Commands.InsertResource(GameRules{
		MaxRounds:    10,
		WinningScore: 4,
		MaxPlayers:   4,
	})

	frame.Commands.Spawn(Player{Name: "Alice"}, Score{})
	frame.Commands.Spawn(Player{Name: "Bob"}, Score{})

	s.State.Get().TotalPlayers = 2
	return nil
}

type newRoundSystem struct {
	Rules   ecs.Res[GameRules]
	State   ecs.Res[GameState]
	Console ecs.Res[Console]
}

func (s *newRoundSystem) Execute(*ecs.UpdateFrame) error {
	state := s.State.Get()
	state.CurrentRound++
	s.Console.Get().say("Begin round %d of %d", state.CurrentRound, s.Rules.Get().MaxRounds)
	return nil
}

// newPlayerSystem may add a player through deferred commands.
type newPlayerSystem struct {
	Rules   ecs.Res[GameRules]
	State   ecs.Res[GameState]
	Rng     ecs.Res[Rng]
	Console ecs.Res[Console]
}

func (s *newPlayerSystem) Execute(frame *ecs.UpdateFrame) error {
	state := s.State.Get()
	if !s.Rng.Get().flip() || state.TotalPlayers >= s.Rules.Get().MaxPlayers {
		return nil
	}

	state.TotalPlayers++
	frame.Commands.Spawn(Player{Name: fmt.Sprintf("Player %d", state.TotalPlayers)}, Score{})
	s.Console.Get().say("Player %d joined the game!", state.TotalPlayers)
	return nil
}

// exclusivePlayerSystem does the same as newPlayerSystem but writes to the
// World directly.
func exclusivePlayerSystem(frame *ecs.UpdateFrame) {
	resources := frame.Resources()
	state := ecs.MustResource[GameState](resources)
	rules := ecs.MustResource[GameRules](resources)

	if !ecs.MustResource[Rng](resources).flip() || state.TotalPlayers >= rules.MaxPlayers {
		return
	}

	state.TotalPlayers++
	ecs.MustResource[Console](resources).say("Player %d has joined the game!", state.TotalPlayers)
	frame.World.Spawn(Player{Name: fmt.Sprintf("Player %d", state.TotalPlayers)}, Score{})
}

type scoreSystem struct {
	Players players
	Rng     ecs.Res[Rng]
	Console ecs.Res[Console]
}

func (s *scoreSystem) Execute(*ecs.UpdateFrame) error {
	for item := range s.Players.Values() {
		if s.Rng.Get().flip() {
			item.Score.Value++
			s.Console.Get().say("%s scored a point! Their score is: %d", item.Player.Name, item.Score.Value)
		} else {
			s.Console.Get().say("%s did not score a point! Their score is: %d", item.Player.Name, item.Score.Value)
		}
	}
	return nil
}

type scoreCheckSystem struct {
	Rules   ecs.Res[GameRules]
	State   ecs.Res[GameState]
	Players players
}

func (s *scoreCheckSystem) Execute(*ecs.UpdateFrame) error {
	for item := range s.Players.Values() {
		if item.Score.Value == s.Rules.Get().WinningScore {
			s.State.Get().WinningPlayer = item.Player.Name
		}
	}
	return nil
}

type gameOverSystem struct {
	Rules   ecs.Res[GameRules]
	State   ecs.Res[GameState]
	Exit    ecs.Res[ecs.AppExit]
	Console ecs.Res[Console]
}

func (s *gameOverSystem) Execute(*ecs.UpdateFrame) error {
	state := s.State.Get()
	switch {
	case state.WinningPlayer != "":
		s.Console.Get().say("%s won the game!", state.WinningPlayer)
		s.Exit.Get().Requested = true
	case state.CurrentRound == s.Rules.Get().MaxRounds:
		s.Console.Get().say("Ran out of rounds. Nobody wins!")
		s.Exit.Get().Requested = true
	}
	return nil
}

type printAtEndRound struct {
	Console ecs.Res[Console]

	count int
}

func (s *printAtEndRound) Execute(*ecs.UpdateFrame) error {
	s.count++
	s.Console.Get().say("In set 'Last' for the %dth time", s.count)
	return nil
}

// gamePlugin installs the guide game: its resources, components and systems.
func gamePlugin(out io.Writer, seed uint64) ecs.Plugin {
	return func(app *ecs.App) {
		registry := app.World().Registry()
		ecs.RegisterComponent[Player](registry)
		ecs.RegisterComponent[Score](registry)

		app.InitResource(
			GameState{},
			ecs.AppExit{},
			Rng{rand.New(rand.NewPCG(seed, seed))},
			Console{out},
		)

		app.AddSystems(ecs.Startup, &startupSystem{})
		app.AddSystems(ecs.Update, ecs.Func(printMessageSystem))
		app.AddSystems(ecs.Last, &printAtEndRound{})

		app.ConfigureSets(ecs.Update, BeforeRound, Round, AfterRound)
		app.AddSystems(ecs.Update,
			ecs.InSet(BeforeRound,
				&newRoundSystem{},
				&newPlayerSystem{},
				ecs.Func(exclusivePlayerSystem),
			),
			ecs.InSet(Round, &scoreSystem{}),
			ecs.InSet(AfterRound, &scoreCheckSystem{}, &gameOverSystem{}),
		)
	}
}
