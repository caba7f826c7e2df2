package ecs

import (
	"cmp"
	"reflect"
	"slices"
)

// StorageStats summarises the contents of a Storage.
type StorageStats struct {
	ArchetypeCount     int
	TotalEntityCount   int
	ArchetypeBreakdown []ArchetypeStats
}

// ArchetypeStats describes one archetype.
type ArchetypeStats struct {
	Id             ArchetypeId
	ComponentTypes []reflect.Type
	EntityCount    int
}

// CollectStats walks every archetype. Breakdown entries are sorted by
// descending entity count.
func (s *Storage) CollectStats() StorageStats {
	stats := StorageStats{
		ArchetypeCount:     len(s.archetypes),
		TotalEntityCount:   s.Len(),
		ArchetypeBreakdown: make([]ArchetypeStats, 0, len(s.archetypes)),
	}

	for archetype := range s.Archetypes() {
		stats.ArchetypeBreakdown = append(stats.ArchetypeBreakdown, ArchetypeStats{
			Id:             archetype.ID(),
			ComponentTypes: archetype.Types(),
			EntityCount:    archetype.Len(),
		})
	}
	slices.SortFunc(stats.ArchetypeBreakdown, func(a, b ArchetypeStats) int {
		if c := cmp.Compare(b.EntityCount, a.EntityCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Id, b.Id)
	})

	return stats
}
