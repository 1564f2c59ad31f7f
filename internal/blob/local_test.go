package blob

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestGenerateFilenamePattern(t *testing.T) {
	store := newTestStore(t)

	pattern := regexp.MustCompile(`^\d+-[a-z0-9]{6}\.jpg$`)

	name := store.GenerateFilename("My Photo.JPG")
	require.Regexp(t, pattern, name)

	// Два вызова дают разные имена
	other := store.GenerateFilename("My Photo.JPG")
	require.NotEqual(t, name, other)
}

func TestGenerateFilenameNoExtension(t *testing.T) {
	store := newTestStore(t)
	name := store.GenerateFilename("noext")
	require.Regexp(t, regexp.MustCompile(`^\d+-[a-z0-9]{6}$`), name)
}

func TestWriteReadRemove(t *testing.T) {
	store := newTestStore(t)

	data := []byte("fake image data")
	require.NoError(t, store.Write("1-abc123.jpg", data))
	require.True(t, store.Exists("1-abc123.jpg"))

	got, err := store.Read("1-abc123.jpg")
	require.NoError(t, err)
	require.Equal(t, data, got)

	require.NoError(t, store.Remove("1-abc123.jpg"))
	require.False(t, store.Exists("1-abc123.jpg"))

	// Повторное удаление — не ошибка
	require.NoError(t, store.Remove("1-abc123.jpg"))
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write("1-abc123.jpg", []byte("data")))

	names, err := store.List()
	require.NoError(t, err)
	require.Equal(t, []string{"1-abc123.jpg"}, names)
}

func TestListSkipsHiddenAndTemp(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Write("2-abc123.jpg", []byte("a")))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), ".hidden"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "partial.jpg.tmp"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(store.Dir(), "subdir"), 0755))

	names, err := store.List()
	require.NoError(t, err)
	require.Equal(t, []string{"2-abc123.jpg"}, names)
}

func TestPathIgnoresTraversal(t *testing.T) {
	store := newTestStore(t)

	path := store.Path("../../etc/passwd")
	require.Equal(t, filepath.Join(store.Dir(), "passwd"), path)
}

func TestURLRoundtrip(t *testing.T) {
	store := newTestStore(t)

	url := store.URL("1-abc123.jpg")
	require.Equal(t, "/images/1-abc123.jpg", url)
	require.Equal(t, "1-abc123.jpg", FilenameFromURL(url))
}
