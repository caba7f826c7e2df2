package ecs

// EntityId encodes both the generation (upper 32 bits) and the entity index (lower 32 bits).
// The zero value never refers to a live entity.
type EntityId uint64

// NewEntityId creates an EntityId from a generation and entity index
func NewEntityId(generation uint32, index uint32) EntityId {
	return EntityId(uint64(generation)<<32 | uint64(index))
}

// Generation extracts the generation from the entity ID
func (e EntityId) Generation() uint32 {
	return uint32(e >> 32)
}

// Index extracts the entity index from the entity ID
func (e EntityId) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// entityAllocator hands out entity ids. An index is only reused after it has
// been freed, and every reuse bumps its generation so stale ids stay dead.
type entityAllocator struct {
	generations []uint32
	alive       []bool
	free        []uint32
	count       int
}

func (a *entityAllocator) allocate() EntityId {
	a.count++

	if len(a.free) > 0 {
		index := a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
		a.alive[index] = true
		return NewEntityId(a.generations[index], index)
	}

	// generation starts at 1 so that no live id is ever 0
	index := uint32(len(a.generations))
	a.generations = append(a.generations, 1)
	a.alive = append(a.alive, true)
	return NewEntityId(1, index)
}

func (a *entityAllocator) isAlive(id EntityId) bool {
	index := id.Index()
	if int(index) >= len(a.generations) {
		return false
	}
	return a.alive[index] && a.generations[index] == id.Generation()
}

func (a *entityAllocator) release(id EntityId) bool {
	if !a.isAlive(id) {
		return false
	}

	index := id.Index()
	a.alive[index] = false
	a.generations[index]++
	if a.generations[index] == 0 {
		a.generations[index] = 1
	}
	a.free = append(a.free, index)
	a.count--
	return true
}
