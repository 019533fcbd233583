package heightmap

import "github.com/tphakala/go-heightmap/internal/block"

// slot addresses an entry in the arena. noSlot terminates the list.
type slot int32

const noSlot slot = -1

// entry owns one block and links it into the recency list.
type entry struct {
	block      *block.Block
	prev, next slot
}

// arena stores blocks in a slab and keeps them in a doubly linked list
// ordered by last fetch, most recent at head. Freed slots are reused.
// The list links are slot indices, never pointers.
type arena struct {
	entries []entry
	free    []slot
	head    slot // Most recently used.
	tail    slot // Least recently used.
	n       int
}

func newArena() arena {
	return arena{head: noSlot, tail: noSlot}
}

func (a *arena) len() int {
	return a.n
}

func (a *arena) block(s slot) *block.Block {
	return a.entries[s].block
}

// insert stores b at the front of the list.
func (a *arena) insert(b *block.Block) slot {
	var s slot
	if n := len(a.free); n > 0 {
		s = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		s = slot(len(a.entries))
		a.entries = append(a.entries, entry{})
	}
	a.entries[s] = entry{block: b, prev: noSlot, next: noSlot}
	a.pushFront(s)
	a.n++
	return s
}

// remove unlinks s and returns its block.
func (a *arena) remove(s slot) *block.Block {
	b := a.entries[s].block
	a.unlink(s)
	a.entries[s] = entry{prev: noSlot, next: noSlot}
	a.free = append(a.free, s)
	a.n--
	return b
}

// moveToFront marks s as the most recently used entry.
func (a *arena) moveToFront(s slot) {
	if a.head == s {
		return
	}
	a.unlink(s)
	a.pushFront(s)
}

// front and back return noSlot when empty.
func (a *arena) front() slot { return a.head }
func (a *arena) back() slot  { return a.tail }

func (a *arena) nextOf(s slot) slot {
	return a.entries[s].next
}

// all calls fn for every entry from most to least recent until fn
// returns false.
func (a *arena) all(fn func(s slot, b *block.Block) bool) {
	for s := a.head; s != noSlot; {
		next := a.entries[s].next
		if !fn(s, a.entries[s].block) {
			return
		}
		s = next
	}
}

func (a *arena) pushFront(s slot) {
	e := &a.entries[s]
	e.prev = noSlot
	e.next = a.head
	if a.head != noSlot {
		a.entries[a.head].prev = s
	}
	a.head = s
	if a.tail == noSlot {
		a.tail = s
	}
}

func (a *arena) unlink(s slot) {
	e := &a.entries[s]
	if e.prev != noSlot {
		a.entries[e.prev].next = e.next
	} else {
		a.head = e.next
	}
	if e.next != noSlot {
		a.entries[e.next].prev = e.prev
	} else {
		a.tail = e.prev
	}
	e.prev, e.next = noSlot, noSlot
}
