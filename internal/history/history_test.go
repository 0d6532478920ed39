package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	h := New[int](0)
	assert.Equal(t, DefaultDepth, h.Depth())
	assert.Equal(t, -1, h.Index())
	assert.Equal(t, 0, h.Size())

	_, ok := h.Current()
	assert.False(t, ok)

	_, err := h.Undo()
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = h.Redo()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestCommitUndoRedo(t *testing.T) {
	h := New[int](10)
	for i := 1; i <= 3; i++ {
		h.Commit(i)
	}
	assert.Equal(t, 2, h.Index())
	assert.True(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	v, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	v, err = h.Undo()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = h.Undo()
	assert.ErrorIs(t, err, ErrAtOldest)
	assert.Equal(t, 0, h.Index())

	v, err = h.Redo()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestCommitTruncatesRedoTail(t *testing.T) {
	h := New[string](10)
	h.Commit("a")
	h.Commit("b")
	h.Commit("c")

	_, err := h.Undo()
	require.NoError(t, err)
	_, err = h.Undo()
	require.NoError(t, err)

	h.Commit("d")
	assert.Equal(t, 2, h.Size())
	assert.Equal(t, 1, h.Index())
	assert.False(t, h.CanRedo())

	_, err = h.Redo()
	assert.ErrorIs(t, err, ErrAtNewest)

	cur, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, "d", cur)
	first, ok := h.At(0)
	require.True(t, ok)
	assert.Equal(t, "a", first)
}

func TestDepthEvictsOldest(t *testing.T) {
	h := New[int](20)
	for i := 1; i <= 25; i++ {
		h.Commit(i)
	}
	require.Equal(t, 20, h.Size())
	assert.Equal(t, 19, h.Index())

	oldest, ok := h.At(0)
	require.True(t, ok)
	assert.Equal(t, 6, oldest)

	for i := 0; i < 19; i++ {
		_, err := h.Undo()
		require.NoError(t, err)
	}
	_, err := h.Undo()
	assert.ErrorIs(t, err, ErrAtOldest)
	cur, _ := h.Current()
	assert.Equal(t, 6, cur)

	for i := 0; i < 19; i++ {
		_, err := h.Redo()
		require.NoError(t, err)
	}
	cur, _ = h.Current()
	assert.Equal(t, 25, cur)
	_, err = h.Redo()
	assert.ErrorIs(t, err, ErrAtNewest)
}

func TestReset(t *testing.T) {
	h := New[int](3)
	h.Commit(1)
	h.Commit(2)
	h.Reset()

	assert.Equal(t, 0, h.Size())
	assert.Equal(t, -1, h.Index())
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	h.Commit(7)
	cur, ok := h.Current()
	require.True(t, ok)
	assert.Equal(t, 7, cur)
}
