package ecs_test

import (
	"reflect"
	"testing"

	"github.com/plus3/ecsapp/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type GameRules struct {
	WinningScore int
	MaxRounds    int
}

func TestResourceInsertAndGet(t *testing.T) {
	r := ecs.NewResources()
	r.Insert(GameRules{WinningScore: 4, MaxRounds: 10})

	rules, err := ecs.GetResource[GameRules](r)
	require.NoError(t, err)
	assert.Equal(t, 4, rules.WinningScore)

	rules.MaxRounds = 20
	assert.Equal(t, 20, ecs.MustResource[GameRules](r).MaxRounds, "resources are mutated in place")
}

func TestResourceInsertReplaces(t *testing.T) {
	r := ecs.NewResources()
	first := r.Insert(Score(1))
	second := r.Insert(Score(2))

	assert.Equal(t, first, second, "a type keeps its id")
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, Score(2), *ecs.MustResource[Score](r))
}

func TestResourceInsertPointer(t *testing.T) {
	r := ecs.NewResources()
	rules := &GameRules{WinningScore: 7}
	r.Insert(rules)

	assert.Same(t, rules, ecs.MustResource[GameRules](r))
}

func TestResourceReadNeverCreates(t *testing.T) {
	r := ecs.NewResources()

	_, err := ecs.GetResource[GameRules](r)
	var missing *ecs.MissingResourceError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, reflect.TypeFor[GameRules](), missing.Type)
	assert.Contains(t, err.Error(), "GameRules")
	assert.Contains(t, err.Error(), "InsertResource")

	assert.False(t, ecs.HasResource[GameRules](r))
	assert.Equal(t, 0, r.Len())
	assert.Panics(t, func() { ecs.MustResource[GameRules](r) })
}

func TestResourceInitResource(t *testing.T) {
	r := ecs.NewResources()
	r.InitResource(Score(3), GameRules{MaxRounds: 5}, Temperature(1))
	r.InitResource(Score(9))

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, Score(9), *ecs.MustResource[Score](r))
	assert.Equal(t, []reflect.Type{
		reflect.TypeFor[Score](),
		reflect.TypeFor[GameRules](),
		reflect.TypeFor[Temperature](),
	}, r.Types())
}

func TestResourceInitDefault(t *testing.T) {
	r := ecs.NewResources()

	score := ecs.InitDefault[Score](r)
	assert.Equal(t, Score(0), *score)

	*score = 5
	assert.Equal(t, Score(5), *ecs.InitDefault[Score](r), "existing value is kept")
}

func TestResourceRemove(t *testing.T) {
	r := ecs.NewResources()
	r.Insert(Score(1))

	assert.True(t, ecs.RemoveResource[Score](r))
	assert.False(t, ecs.RemoveResource[Score](r))
	assert.False(t, ecs.HasResource[Score](r))
	assert.Empty(t, r.Types())
}

func TestResourceInsertNil(t *testing.T) {
	r := ecs.NewResources()
	assert.Panics(t, func() { r.Insert(nil) })
	assert.Panics(t, func() { r.Insert((*GameRules)(nil)) })
}
