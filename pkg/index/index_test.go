package index

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"minivcs/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupIndex returns an index rooted in a temp dir plus a scratch dir for
// source files.
func setupIndex(t *testing.T) (*Index, string) {
	t.Helper()
	tmpDir := t.TempDir()
	indexDir := filepath.Join(tmpDir, "index")
	require.NoError(t, os.MkdirAll(indexDir, 0755))

	idx, err := NewIndex(indexDir, logging.Nop())
	require.NoError(t, err)

	work := filepath.Join(tmpDir, "work")
	require.NoError(t, os.MkdirAll(work, 0755))
	return idx, work
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestNewIndex_Missing(t *testing.T) {
	_, err := NewIndex(filepath.Join(t.TempDir(), "nope"), nil)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestIndex_AddAndList(t *testing.T) {
	idx, work := setupIndex(t)

	b := writeFile(t, work, "b.txt", "hello")
	a := writeFile(t, work, "a.txt", "abc")

	added, err := idx.Add(b, a)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, "b.txt", added[0].Name)
	assert.Equal(t, int64(5), added[0].Size)

	entries, err := idx.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].Name, "list is sorted by name")
	assert.Equal(t, int64(3), entries[0].Size)
	assert.Equal(t, "b.txt", entries[1].Name)

	empty, err := idx.IsEmpty()
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestIndex_StagedCopyIsSnapshot(t *testing.T) {
	idx, work := setupIndex(t)
	src := writeFile(t, work, "a.txt", "v1")

	_, err := idx.Add(src)
	require.NoError(t, err)

	// later edits to the source must not leak into the index
	require.NoError(t, os.WriteFile(src, []byte("version two"), 0644))

	data, err := idx.Read("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))
}

func TestIndex_ReAddReplaces(t *testing.T) {
	idx, work := setupIndex(t)
	src := writeFile(t, work, "a.txt", "v1")
	_, err := idx.Add(src)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(src, []byte("v2!"), 0644))
	_, err = idx.Add(src)
	require.NoError(t, err)

	entries, err := idx.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].Size)
}

func TestIndex_AddAllOrNothing(t *testing.T) {
	idx, work := setupIndex(t)

	// something staged by an earlier batch is also discarded
	_, err := idx.Add(writeFile(t, work, "old.txt", "old"))
	require.NoError(t, err)

	batch := []string{
		writeFile(t, work, "one.txt", "1"),
		writeFile(t, work, "two.txt", "22"),
		filepath.Join(work, "missing.txt"), // k-th copy fails
		writeFile(t, work, "four.txt", "4444"),
	}

	added, err := idx.Add(batch...)
	assert.Nil(t, added)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialAdd)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var addErr *AddError
	require.ErrorAs(t, err, &addErr)
	assert.Equal(t, batch[2], addErr.Path)
	assert.Contains(t, err.Error(), "index emptied, re-add the whole batch")

	entries, err := idx.List()
	require.NoError(t, err)
	assert.Empty(t, entries, "index must hold zero entries, not k-1")

	// the directory is recreated and usable
	_, err = idx.Add(batch[0])
	assert.NoError(t, err)
}

func TestIndex_AddRejectsDirectory(t *testing.T) {
	idx, work := setupIndex(t)
	sub := filepath.Join(work, "sub")
	require.NoError(t, os.MkdirAll(sub, 0755))

	_, err := idx.Add(sub)
	assert.ErrorIs(t, err, ErrPartialAdd)
}

func TestIndex_AddRejectsReservedName(t *testing.T) {
	idx, work := setupIndex(t)
	_, err := idx.Add(writeFile(t, work, "a,b.txt", "x"))
	assert.ErrorIs(t, err, ErrPartialAdd)
}

func TestIndex_ReadMissing(t *testing.T) {
	idx, _ := setupIndex(t)

	_, err := idx.Read("ghost")
	assert.ErrorIs(t, err, ErrNotStaged)

	_, err = idx.Read("../escape")
	assert.ErrorIs(t, err, ErrNotStaged)
}

func TestIndex_RemoveAndClear(t *testing.T) {
	idx, work := setupIndex(t)
	_, err := idx.Add(writeFile(t, work, "a", "1"), writeFile(t, work, "b", "2"))
	require.NoError(t, err)

	require.NoError(t, idx.Remove("a", "ghost"))
	entries, err := idx.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Name)

	require.NoError(t, idx.Clear())
	require.NoError(t, idx.Clear(), "clear is idempotent")

	empty, err := idx.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestIndex_ListSkipsTemps(t *testing.T) {
	idx, _ := setupIndex(t)
	require.NoError(t, os.WriteFile(filepath.Join(idx.Dir(), ".tmp,999"), []byte("half"), 0644))

	entries, err := idx.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIndex_TempLookingNamesStay(t *testing.T) {
	idx, work := setupIndex(t)

	added, err := idx.Add(writeFile(t, work, ".tmp-notes", "abc"), writeFile(t, work, ".tmp-", "x"))
	require.NoError(t, err)
	require.Len(t, added, 2)

	entries, err := idx.List()
	require.NoError(t, err)
	require.Len(t, entries, 2, "every successfully added entry is listed")
	assert.Equal(t, ".tmp-", entries[0].Name)
	assert.Equal(t, ".tmp-notes", entries[1].Name)
	assert.Equal(t, int64(3), entries[1].Size)
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a.txt", "a.txt"},
		{"./dir/a.txt", "a.txt"},
		{"dir//b.bin", "b.bin"},
		{"dir/sub/", "sub"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, EntryName(tt.input))
	}
}
