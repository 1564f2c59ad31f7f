package recon

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Jordanrcarlson/jordancloud/internal/blob"
	"github.com/Jordanrcarlson/jordancloud/internal/storage"
)

func newTestDeps(t *testing.T) (*storage.Store, *blob.Store) {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	blobs, err := blob.NewStore(filepath.Join(dir, "images"))
	require.NoError(t, err)

	return store, blobs
}

func insertWithBlob(t *testing.T, store *storage.Store, blobs *blob.Store, filename string, onDisk bool) *storage.Media {
	t.Helper()

	if onDisk {
		require.NoError(t, blobs.Write(filename, []byte("data")))
	}
	m := &storage.Media{
		URL:      blobs.URL(filename),
		Filename: filename,
		Folder:   storage.FolderPublic,
		Type:     storage.MediaTypeImage,
		MimeType: "image/jpeg",
		Size:     4,
	}
	require.NoError(t, store.InsertMedia(m))
	return m
}

func TestReconcileMarksMissing(t *testing.T) {
	store, blobs := newTestDeps(t)

	present := insertWithBlob(t, store, blobs, "1-aaaaaa.jpg", true)
	missing := insertWithBlob(t, store, blobs, "2-bbbbbb.jpg", false)

	r := NewReconciler(store, blobs)
	progress, err := r.Run()
	require.NoError(t, err)
	require.Equal(t, 2, progress.Checked)
	require.Equal(t, 1, progress.Missing)
	require.Equal(t, 1, progress.Marked)

	// Возвращённый снимок отражает завершённую сверку
	require.False(t, progress.Running)
	require.False(t, progress.FinishedAt.IsZero())
	require.False(t, r.IsRunning())

	got, err := store.GetMedia(missing.ID)
	require.NoError(t, err)
	require.True(t, got.IsDeleted())

	kept, err := store.GetMedia(present.ID)
	require.NoError(t, err)
	require.False(t, kept.IsDeleted())
}

func TestReconcileIdempotent(t *testing.T) {
	store, blobs := newTestDeps(t)

	insertWithBlob(t, store, blobs, "1-aaaaaa.jpg", true)
	insertWithBlob(t, store, blobs, "2-bbbbbb.jpg", false)

	r := NewReconciler(store, blobs)
	_, err := r.Run()
	require.NoError(t, err)

	// Повторная сверка без изменений на диске ничего не помечает
	progress, err := r.Run()
	require.NoError(t, err)
	require.Equal(t, 1, progress.Checked) // уже помеченное не активно
	require.Zero(t, progress.Missing)
	require.Zero(t, progress.Marked)
}

func TestReconcileSkipsTrash(t *testing.T) {
	store, blobs := newTestDeps(t)

	m := insertWithBlob(t, store, blobs, "1-aaaaaa.jpg", false)
	_, err := store.SoftDeleteMedia([]string{m.ID})
	require.NoError(t, err)

	r := NewReconciler(store, blobs)
	progress, err := r.Run()
	require.NoError(t, err)
	require.Zero(t, progress.Checked)
	require.Zero(t, progress.Marked)
}

func TestReconcileEmptyLibrary(t *testing.T) {
	store, blobs := newTestDeps(t)

	r := NewReconciler(store, blobs)
	progress, err := r.Run()
	require.NoError(t, err)
	require.Zero(t, progress.Checked)
	require.False(t, progress.Running)
	require.False(t, progress.FinishedAt.IsZero())
	require.False(t, r.IsRunning())
}
