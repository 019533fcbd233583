package gpu

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDevice_Lifecycle(t *testing.T) {
	d := NewMemoryDevice(1 << 20)

	tex, err := d.Allocate(4, 2)
	require.NoError(t, err)
	assert.NotZero(t, tex)

	in := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, d.Write(tex, in))

	out := make([]float32, 8)
	require.NoError(t, d.Read(tex, out))
	assert.Equal(t, in, out)

	require.ErrorIs(t, d.Write(tex, in[:3]), ErrSizeMismatch)

	require.NoError(t, d.Map(tex))
	assert.Equal(t, 1, d.Stats().Mapped)
	require.NoError(t, d.Unmap(tex))
	assert.Equal(t, 0, d.Stats().Mapped)

	require.NoError(t, d.Release(tex))
	require.ErrorIs(t, d.Release(tex), ErrUnknownTexture)
	require.ErrorIs(t, d.Map(tex), ErrUnknownTexture)
	assert.Equal(t, Stats{BudgetBytes: 1 << 20, Allocations: 1}, d.Stats())
}

func TestMemoryDevice_Budget(t *testing.T) {
	d := NewMemoryDevice(2 * 16 * 16 * BytesPerTexel)

	a, err := d.Allocate(16, 16)
	require.NoError(t, err)
	_, err = d.Allocate(16, 16)
	require.NoError(t, err)

	_, err = d.Allocate(16, 16)
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Contains(t, err.Error(), "2.0 kB")

	require.NoError(t, d.Release(a))
	_, err = d.Allocate(16, 16)
	require.NoError(t, err)
}

func TestMemoryDevice_FailNext(t *testing.T) {
	d := NewMemoryDevice(1 << 20)
	d.FailNext(2)

	for range 2 {
		_, err := d.Allocate(8, 8)
		require.ErrorIs(t, err, ErrOutOfMemory)
	}
	_, err := d.Allocate(8, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Stats().Live)
}

func TestMemoryDevice_Concurrent(t *testing.T) {
	d := NewMemoryDevice(1 << 24)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				tex, err := d.Allocate(8, 8)
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, d.Write(tex, make([]float32, 64)))
				assert.NoError(t, d.Release(tex))
			}
		}()
	}
	wg.Wait()

	s := d.Stats()
	assert.Zero(t, s.Live)
	assert.Zero(t, s.UsedBytes)
	assert.Equal(t, uint64(400), s.Allocations)
}
