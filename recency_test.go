package heightmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(a *arena) []*Block {
	var out []*Block
	a.all(func(_ slot, b *Block) bool {
		out = append(out, b)
		return true
	})
	return out
}

func TestArena_InsertAndMove(t *testing.T) {
	a := newArena()
	assert.Equal(t, noSlot, a.front())
	assert.Equal(t, noSlot, a.back())

	x, y, z := &Block{}, &Block{}, &Block{}
	sx := a.insert(x)
	sy := a.insert(y)
	sz := a.insert(z)

	assert.Equal(t, 3, a.len())
	assert.Equal(t, []*Block{z, y, x}, order(&a))
	assert.Equal(t, sz, a.front())
	assert.Equal(t, sx, a.back())

	a.moveToFront(sx)
	assert.Equal(t, []*Block{x, z, y}, order(&a))
	assert.Equal(t, sy, a.back())

	a.moveToFront(sx)
	assert.Equal(t, []*Block{x, z, y}, order(&a))

	a.moveToFront(sz)
	assert.Equal(t, []*Block{z, x, y}, order(&a))
}

func TestArena_RemoveReusesSlots(t *testing.T) {
	a := newArena()
	x, y, z := &Block{}, &Block{}, &Block{}
	sx := a.insert(x)
	sy := a.insert(y)
	a.insert(z)

	assert.Same(t, y, a.remove(sy))
	assert.Equal(t, []*Block{z, x}, order(&a))
	assert.Same(t, x, a.remove(sx))
	assert.Equal(t, []*Block{z}, order(&a))
	assert.Equal(t, a.front(), a.back())

	w := &Block{}
	sw := a.insert(w)
	assert.Equal(t, sx, sw, "most recently freed slot is reused first")
	assert.Len(t, a.entries, 3)
	assert.Equal(t, []*Block{w, z}, order(&a))
}

func TestArena_RemoveDuringIteration(t *testing.T) {
	a := newArena()
	var blocks []*Block
	for range 6 {
		b := &Block{}
		blocks = append(blocks, b)
		a.insert(b)
	}

	i := 0
	a.all(func(s slot, _ *Block) bool {
		if i%2 == 0 {
			a.remove(s)
		}
		i++
		return true
	})

	require.Equal(t, 3, a.len())
	assert.Equal(t, []*Block{blocks[4], blocks[2], blocks[0]}, order(&a))
}

func TestArena_StopsEarly(t *testing.T) {
	a := newArena()
	for range 4 {
		a.insert(&Block{})
	}
	visited := 0
	a.all(func(slot, *Block) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}
