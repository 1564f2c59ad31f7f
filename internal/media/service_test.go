package media

import (
	"bytes"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Jordanrcarlson/jordancloud/internal/blob"
	"github.com/Jordanrcarlson/jordancloud/internal/config"
	"github.com/Jordanrcarlson/jordancloud/internal/storage"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

func newTestService(t *testing.T) (*Service, *storage.Store, *blob.Store) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.ImagesPath = filepath.Join(dir, "images")
	cfg.Storage.ThumbsPath = filepath.Join(dir, "cache")
	cfg.Storage.DBPath = filepath.Join(dir, "test.db")
	cfg.Upload.MaxSizeMB = 1

	store, err := storage.NewStore(cfg.Storage.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	blobs, err := blob.NewStore(cfg.Storage.ImagesPath)
	require.NoError(t, err)

	svc := NewService(cfg, store, blobs, NewThumbnailer(cfg))
	return svc, store, blobs
}

func TestUploadValidImage(t *testing.T) {
	svc, store, blobs := newTestService(t)

	m, err := svc.Upload([]byte("fake jpeg content"), "photo.jpg", "image/jpeg", storage.FolderPublic)
	require.NoError(t, err)

	require.Regexp(t, regexp.MustCompile(`^/images/\d+-[a-z0-9]{6}\.jpg$`), m.URL)
	require.Equal(t, storage.MediaTypeImage, m.Type)
	require.Equal(t, "image/jpeg", m.MimeType)
	require.Equal(t, storage.FolderPublic, m.Folder)
	require.True(t, blobs.Exists(m.Filename))

	// Метаданные зарегистрированы после записи файла
	got, err := store.GetMediaByURL(m.URL)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, m.ID, got.ID)
}

func TestUploadVideo(t *testing.T) {
	svc, _, _ := newTestService(t)

	m, err := svc.Upload([]byte("fake video"), "clip.mp4", "video/mp4", storage.FolderPublic)
	require.NoError(t, err)
	require.Equal(t, storage.MediaTypeVideo, m.Type)
}

func TestUploadDefaultsToPublicFolder(t *testing.T) {
	svc, _, _ := newTestService(t)

	m, err := svc.Upload([]byte("data"), "photo.jpg", "image/jpeg", "")
	require.NoError(t, err)
	require.Equal(t, storage.FolderPublic, m.Folder)
}

func TestUploadEmptyName(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Upload([]byte("data"), "   ", "image/jpeg", storage.FolderPublic)
	require.ErrorIs(t, err, ErrEmptyFilename)
}

func TestUploadTooLarge(t *testing.T) {
	svc, _, blobs := newTestService(t)

	data := bytes.Repeat([]byte("x"), 1<<20+1)
	_, err := svc.Upload(data, "big.jpg", "image/jpeg", storage.FolderPublic)
	require.ErrorIs(t, err, ErrFileTooLarge)

	// Отклонённый файл не попал на диск
	names, err := blobs.List()
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestUploadRejectsNonMedia(t *testing.T) {
	svc, _, blobs := newTestService(t)

	_, err := svc.Upload([]byte("hello"), "notes.txt", "text/plain", storage.FolderPublic)
	require.ErrorIs(t, err, ErrInvalidMediaType)
	require.True(t, IsValidation(err))

	names, err := blobs.List()
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestUploadUnknownFolder(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Upload([]byte("data"), "photo.jpg", "image/jpeg", "secret")
	require.ErrorIs(t, err, ErrInvalidFolder)
}

func TestUploadDetectsMimeFromContent(t *testing.T) {
	svc, _, _ := newTestService(t)

	// Заявленный тип бесполезен, тип берётся из magic bytes
	m, err := svc.Upload(pngHeader, "photo.png", "application/octet-stream", storage.FolderPublic)
	require.NoError(t, err)
	require.Equal(t, storage.MediaTypeImage, m.Type)
	require.Equal(t, "image/png", m.MimeType)
}

func TestUploadBatchIndependent(t *testing.T) {
	svc, _, _ := newTestService(t)

	items := []UploadItem{
		{Name: "ok.jpg", MimeType: "image/jpeg", Data: []byte("a")},
		{Name: "bad.txt", MimeType: "text/plain", Data: []byte("b")},
		{Name: "ok2.jpg", MimeType: "image/jpeg", Data: []byte("c")},
	}

	results := svc.UploadBatch(items, storage.FolderPublic)
	require.Len(t, results, 3)
	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, ErrInvalidMediaType)
	require.NoError(t, results[2].Err)
}

func TestSoftDeleteKeepsBlob(t *testing.T) {
	svc, store, blobs := newTestService(t)

	m, err := svc.Upload([]byte("data"), "photo.jpg", "image/jpeg", storage.FolderPublic)
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete([]string{m.ID}))

	got, err := store.GetMedia(m.ID)
	require.NoError(t, err)
	require.True(t, got.IsDeleted())
	require.True(t, blobs.Exists(m.Filename))
}

func TestRestoreUnknownIDIsNoop(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.Restore("no-such-id"))
}

func TestPurgeRemovesBlobs(t *testing.T) {
	svc, store, blobs := newTestService(t)

	m, err := svc.Upload([]byte("data"), "photo.jpg", "image/jpeg", storage.FolderPublic)
	require.NoError(t, err)
	require.NoError(t, svc.SoftDelete([]string{m.ID}))

	// Состариваем запись за порог хранения
	aged, err := store.GetMedia(m.ID)
	require.NoError(t, err)
	ts := time.Now().Add(-31 * 24 * time.Hour)
	aged.DeletedAt = &ts
	require.NoError(t, store.UpdateMedia(aged))

	n, err := svc.Purge(30)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.False(t, blobs.Exists(m.Filename))
	gone, err := store.GetMedia(m.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestPurgeSkipsFreshTrash(t *testing.T) {
	svc, store, _ := newTestService(t)

	m, err := svc.Upload([]byte("data"), "photo.jpg", "image/jpeg", storage.FolderPublic)
	require.NoError(t, err)
	require.NoError(t, svc.SoftDelete([]string{m.ID}))

	n, err := svc.Purge(30)
	require.NoError(t, err)
	require.Zero(t, n)

	kept, err := store.GetMedia(m.ID)
	require.NoError(t, err)
	require.NotNil(t, kept)
}

func TestRemoveFilesIgnoresOutsidePaths(t *testing.T) {
	svc, _, blobs := newTestService(t)

	m, err := svc.Upload([]byte("data"), "photo.jpg", "image/jpeg", storage.FolderPublic)
	require.NoError(t, err)

	// Пути вне /images/ игнорируются
	svc.RemoveFiles([]string{"/etc/passwd", "relative.jpg"})
	require.True(t, blobs.Exists(m.Filename))

	svc.RemoveFiles([]string{m.URL})
	require.False(t, blobs.Exists(m.Filename))
}

func TestTypeFromMime(t *testing.T) {
	mt, ok := TypeFromMime("image/png")
	require.True(t, ok)
	require.Equal(t, storage.MediaTypeImage, mt)

	mt, ok = TypeFromMime("video/quicktime")
	require.True(t, ok)
	require.Equal(t, storage.MediaTypeVideo, mt)

	_, ok = TypeFromMime("application/pdf")
	require.False(t, ok)
}

func TestResolveMime(t *testing.T) {
	require.Equal(t, "image/jpeg", ResolveMime("image/jpeg", nil))
	require.Equal(t, "image/png", ResolveMime("", pngHeader))
	require.Equal(t, "image/png", ResolveMime("application/octet-stream", pngHeader))
	require.Equal(t, "", ResolveMime("", []byte("garbage")))
}
