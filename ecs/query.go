package ecs

import (
	"iter"
)

// Query wraps a View with caching for repeated iteration inside a system.
// The schedule calls Execute before every invocation of the owning system,
// so Iter reflects the world as it was when the system started.
type Query[T any] struct {
	view *View[T]

	cachedArchetypes   []*Archetype
	lastArchetypeCount int

	cachedEntities   []EntityId
	cachedComponents []T
	cacheValid       bool
}

// NewQuery creates a new Query over the given store.
func NewQuery[T any](store ComponentStore) *Query[T] {
	q := &Query[T]{}
	q.Init(store)
	return q
}

// Init initializes or re-initializes the Query with a store.
// The schedule calls it when the owning system first runs.
func (q *Query[T]) Init(store ComponentStore) {
	q.view = NewView[T](store)
	q.cachedArchetypes = nil
	q.lastArchetypeCount = -1
	q.cacheValid = false
}

func (q *Query[T]) bind(w *World) {
	q.Init(w.Entities())
}

func (q *Query[T]) prepare(*World) error {
	q.Execute()
	return nil
}

// Execute builds the entity and component caches for this run.
func (q *Query[T]) Execute() {
	if q.view == nil {
		panic("Query.Execute() called before Query.Init()")
	}

	q.cachedEntities = q.cachedEntities[:0]
	q.cachedComponents = q.cachedComponents[:0]

	if dense, ok := q.view.store.(*Storage); ok {
		q.ensureArchetypeCache(dense)
		for _, archetype := range q.cachedArchetypes {
			for id, item := range q.view.iterArchetype(archetype) {
				q.cachedEntities = append(q.cachedEntities, id)
				q.cachedComponents = append(q.cachedComponents, item)
			}
		}
	} else {
		for id, item := range q.view.Iter() {
			q.cachedEntities = append(q.cachedEntities, id)
			q.cachedComponents = append(q.cachedComponents, item)
		}
	}

	q.cacheValid = true
}

// ensureArchetypeCache recomputes the matching archetypes whenever the
// storage created new ones. Archetypes are never removed.
func (q *Query[T]) ensureArchetypeCache(storage *Storage) {
	currentCount := len(storage.archetypes)
	if q.cachedArchetypes != nil && currentCount == q.lastArchetypeCount {
		return
	}

	q.lastArchetypeCount = currentCount
	q.cachedArchetypes = make([]*Archetype, 0)
	for archetype := range storage.Archetypes() {
		if q.view.matchesArchetype(archetype) {
			q.cachedArchetypes = append(q.cachedArchetypes, archetype)
		}
	}
}

// Len returns the number of entities matched by the last Execute.
func (q *Query[T]) Len() int {
	return len(q.cachedEntities)
}

// Get returns the view struct for one entity, bypassing the cache.
func (q *Query[T]) Get(id EntityId) *T {
	return q.view.Get(id)
}

// Iter returns an iterator over entity IDs and component data.
// Panics if Execute() has not been called.
func (q *Query[T]) Iter() iter.Seq2[EntityId, T] {
	if !q.cacheValid {
		panic("Query.Iter() called before Query.Execute()")
	}

	return func(yield func(EntityId, T) bool) {
		for i := range q.cachedEntities {
			if !yield(q.cachedEntities[i], q.cachedComponents[i]) {
				return
			}
		}
	}
}

// Values returns an iterator over component data only.
// Panics if Execute() has not been called.
func (q *Query[T]) Values() iter.Seq[T] {
	if !q.cacheValid {
		panic("Query.Values() called before Query.Execute()")
	}

	return func(yield func(T) bool) {
		for i := range q.cachedComponents {
			if !yield(q.cachedComponents[i]) {
				return
			}
		}
	}
}
