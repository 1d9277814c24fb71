package ecs

import "fmt"

// EntityID encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on destroy to invalidate stale refs.
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

func (id EntityID) String() string {
	return fmt.Sprintf("%d:%d", id.Index(), id.Generation())
}

// EntityPool manages entity allocation with generational indices and a free list.
// Index 0 generation 0 is never handed out so the zero EntityID means "none".
type EntityPool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		generations: make([]uint32, 1, 256),
		freeList:    make([]uint32, 0, 64),
		nextIndex:   1,
	}
}

func (p *EntityPool) Create() EntityID {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return NewEntityID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return NewEntityID(idx, p.generations[idx])
}

// Reserve marks a specific id as alive. Used when vehicles are restored from
// storage with the id they were saved under. Returns false if the index is
// already in use.
func (p *EntityPool) Reserve(id EntityID) bool {
	idx := id.Index()
	if idx == 0 {
		return false
	}
	if idx < p.nextIndex {
		if !p.inFreeList(idx) {
			return false
		}
		p.removeFree(idx)
	} else {
		for i := p.nextIndex; i < idx; i++ {
			p.freeList = append(p.freeList, i)
		}
		p.nextIndex = idx + 1
	}
	for int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	p.generations[idx] = id.Generation()
	return true
}

func (p *EntityPool) Alive(id EntityID) bool {
	idx := id.Index()
	if idx == 0 || idx >= p.nextIndex {
		return false
	}
	if p.inFreeList(idx) {
		return false
	}
	return p.generations[idx] == id.Generation()
}

func (p *EntityPool) Destroy(id EntityID) {
	idx := id.Index()
	if idx == 0 || idx >= p.nextIndex {
		return
	}
	if p.generations[idx] != id.Generation() || p.inFreeList(idx) {
		return // already destroyed (stale reference)
	}
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}

func (p *EntityPool) inFreeList(idx uint32) bool {
	for _, f := range p.freeList {
		if f == idx {
			return true
		}
	}
	return false
}

func (p *EntityPool) removeFree(idx uint32) {
	for i, f := range p.freeList {
		if f == idx {
			p.freeList = append(p.freeList[:i], p.freeList[i+1:]...)
			return
		}
	}
}
