package pkg

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Path     string
	Codes    []string
	Failures int
}

func TestFileSpill(t *testing.T) {
	t.Run("NewFileSpill uses the given directory", func(t *testing.T) {
		dir := t.TempDir()

		spill, err := NewFileSpill[int](dir)
		require.NoError(t, err)
		defer spill.Close()

		assert.Contains(t, spill.Path(), dir)
	})

	t.Run("Append and Get", func(t *testing.T) {
		spill, err := NewFileSpill[string](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		require.NoError(t, spill.Append("first"))
		require.NoError(t, spill.Append("second"))

		v, err := spill.Get(1)
		require.NoError(t, err)
		assert.Equal(t, "second", v)

		v, err = spill.Get(0)
		require.NoError(t, err)
		assert.Equal(t, "first", v)

		v, err = spill.Get(3)
		require.Error(t, err)
		assert.Empty(t, v)
	})

	t.Run("structs do not leak fields between items", func(t *testing.T) {
		spill, err := NewFileSpill[record](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		require.NoError(t, spill.AppendBatch([]record{
			{Path: "a.js", Codes: []string{"sandbox-eval"}, Failures: 1},
			{Path: "b.js"},
		}))

		all, err := spill.Collect()
		require.NoError(t, err)
		assert.Equal(t, []record{
			{Path: "a.js", Codes: []string{"sandbox-eval"}, Failures: 1},
			{Path: "b.js"},
		}, all)
	})

	t.Run("Range stops on callback error", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		require.NoError(t, spill.AppendBatch([]int{1, 2, 3}))

		stop := errors.New("stop")
		var seen []int

		err = spill.Range(func(_ uint64, item int) error {
			seen = append(seen, item)
			if item == 2 {
				return stop
			}

			return nil
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, []int{1, 2}, seen)
	})

	t.Run("concurrent appends", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		defer spill.Close()

		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)

			go func() {
				defer wg.Done()
				assert.NoError(t, spill.Append(i))
			}()
		}

		wg.Wait()

		all, err := spill.Collect()
		require.NoError(t, err)
		assert.Len(t, all, 50)
		assert.Equal(t, uint64(50), spill.Len())
	})

	t.Run("Close removes the file", func(t *testing.T) {
		spill, err := NewFileSpill[int](t.TempDir())
		require.NoError(t, err)
		require.NoError(t, spill.Append(1))

		require.NoError(t, spill.Close())
		require.NoError(t, spill.Close())

		_, err = os.Stat(spill.Path())
		assert.True(t, os.IsNotExist(err))

		assert.ErrorIs(t, spill.Append(2), ErrSpillClosed)
		_, err = spill.Collect()
		assert.ErrorIs(t, err, ErrSpillClosed)
	})
}
