package media

import (
	"fmt"
	"strings"
	"time"

	"github.com/Jordanrcarlson/jordancloud/internal/blob"
	"github.com/Jordanrcarlson/jordancloud/internal/config"
	"github.com/Jordanrcarlson/jordancloud/internal/logger"
	"github.com/Jordanrcarlson/jordancloud/internal/storage"
)

// ThumbnailQueue ставит генерацию превью в фоновую очередь
type ThumbnailQueue interface {
	QueueAll(mediaID string)
}

// Service управляет жизненным циклом медиа: загрузка, мягкое удаление,
// восстановление, окончательная чистка корзины.
type Service struct {
	cfg    *config.Config
	store  *storage.Store
	blobs  *blob.Store
	thumbs *Thumbnailer
	queue  ThumbnailQueue // nil = превью не генерируются
}

// NewService создает сервис медиа
func NewService(cfg *config.Config, store *storage.Store, blobs *blob.Store, thumbs *Thumbnailer) *Service {
	return &Service{
		cfg:    cfg,
		store:  store,
		blobs:  blobs,
		thumbs: thumbs,
	}
}

// SetThumbnailQueue подключает фоновую очередь превью
func (s *Service) SetThumbnailQueue(q ThumbnailQueue) {
	s.queue = q
}

// UploadResult результат загрузки одного файла в пакете
type UploadResult struct {
	Name  string         `json:"name"`
	Media *storage.Media `json:"media,omitempty"`
	Err   error          `json:"-"`
}

// Upload проверяет файл, кладёт его на диск и регистрирует метаданные.
// Порядок строгий: сначала запись файла, затем вставка записи —
// метаданные никогда не ссылаются на файл, которого не было.
func (s *Service) Upload(data []byte, name, mimeType string, folder storage.Folder) (*storage.Media, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyFilename
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes() {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(data), s.cfg.MaxUploadBytes())
	}
	if folder == "" {
		folder = storage.FolderPublic
	}
	if !storage.ValidFolder(folder) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFolder, folder)
	}

	mime := ResolveMime(mimeType, data)
	if !s.cfg.IsAllowedMime(mime) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMediaType, mime)
	}
	mediaType, ok := TypeFromMime(mime)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMediaType, mime)
	}

	filename := s.blobs.GenerateFilename(name)
	if err := s.blobs.Write(filename, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	m := &storage.Media{
		URL:      s.blobs.URL(filename),
		Filename: filename,
		Folder:   folder,
		Type:     mediaType,
		MimeType: mime,
		Size:     int64(len(data)),
	}
	if mediaType == storage.MediaTypeImage {
		m.TakenAt = extractTakenAt(data)
	}

	if err := s.store.InsertMedia(m); err != nil {
		// Файл уже на диске и останется осиротевшим: сверка с диском
		// такие файлы не видит. Отдаём отдельную ошибку, не маскируем.
		logger.ErrorLog.Printf("[MEDIA] orphan blob %s: metadata insert failed: %v", filename, err)
		return nil, fmt.Errorf("%w: %v", ErrMetadataInsert, err)
	}

	logger.InfoLog.Printf("[MEDIA] uploaded %s (%s, %d bytes, folder=%s)", m.URL, m.Type, m.Size, m.Folder)

	if s.queue != nil {
		s.queue.QueueAll(m.ID)
	}

	return m, nil
}

// UploadBatch загружает файлы по одному как независимые операции.
// Ошибка одного файла не откатывает уже загруженные.
func (s *Service) UploadBatch(items []UploadItem, folder storage.Folder) []UploadResult {
	results := make([]UploadResult, 0, len(items))
	for _, item := range items {
		m, err := s.Upload(item.Data, item.Name, item.MimeType, folder)
		results = append(results, UploadResult{Name: item.Name, Media: m, Err: err})
	}
	return results
}

// UploadItem один файл пакетной загрузки
type UploadItem struct {
	Name     string
	MimeType string
	Data     []byte
}

// SoftDelete помечает набор медиа удалёнными одним обновлением.
// Файлы на диске не трогаются, меняется только видимость.
func (s *Service) SoftDelete(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := s.store.SoftDeleteMedia(ids)
	if err != nil {
		return fmt.Errorf("soft delete: %w", err)
	}
	logger.InfoLog.Printf("[MEDIA] soft-deleted %d of %d requested", n, len(ids))
	return nil
}

// Restore возвращает медиа из корзины.
// Неизвестный ID — не фатальная ошибка, только запись в лог.
func (s *Service) Restore(id string) error {
	ok, err := s.store.RestoreMedia(id)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if !ok {
		logger.InfoLog.Printf("[MEDIA] restore: media %s not found, skipping", id)
	}
	return nil
}

// Purge окончательно удаляет записи, пролежавшие в корзине дольше
// olderThanDays, вместе с файлами и превью. Возвращает число удалённых.
func (s *Service) Purge(olderThanDays int) (int, error) {
	purged, err := s.store.PurgeTrash(time.Duration(olderThanDays) * 24 * time.Hour)
	if err != nil {
		return 0, fmt.Errorf("purge trash: %w", err)
	}

	for _, m := range purged {
		if err := s.blobs.Remove(m.Filename); err != nil {
			logger.ErrorLog.Printf("[MEDIA] purge: failed to remove blob %s: %v", m.Filename, err)
		}
		if s.thumbs != nil {
			s.thumbs.Delete(m.ID)
		}
	}

	if len(purged) > 0 {
		logger.InfoLog.Printf("[MEDIA] purged %d items older than %d days", len(purged), olderThanDays)
	}
	return len(purged), nil
}

// RemoveFiles удаляет с диска перечисленные публичные пути (/images/...).
// Ошибки отдельных файлов логируются, удаление продолжается.
func (s *Service) RemoveFiles(paths []string) {
	for _, p := range paths {
		if !strings.HasPrefix(p, blob.URLPrefix) {
			logger.InfoLog.Printf("[MEDIA] delete: skipping path outside images dir: %s", p)
			continue
		}
		if err := s.blobs.Remove(blob.FilenameFromURL(p)); err != nil {
			logger.ErrorLog.Printf("[MEDIA] delete: failed to remove %s: %v", p, err)
		}
	}
}
