package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/Jordanrcarlson/jordancloud/internal/blob"
	"github.com/Jordanrcarlson/jordancloud/internal/logger"
	"github.com/Jordanrcarlson/jordancloud/internal/media"
	"github.com/Jordanrcarlson/jordancloud/internal/storage"
)

// ThumbQueue ставит генерацию превью в пул воркеров
type ThumbQueue struct {
	pool   *Pool
	store  *storage.Store
	blobs  *blob.Store
	thumbs *media.Thumbnailer
}

// NewThumbQueue создает очередь превью и регистрирует обработчик в пуле
func NewThumbQueue(pool *Pool, store *storage.Store, blobs *blob.Store, thumbs *media.Thumbnailer) *ThumbQueue {
	q := &ThumbQueue{
		pool:   pool,
		store:  store,
		blobs:  blobs,
		thumbs: thumbs,
	}
	pool.RegisterHandler(TaskGenerateThumbnail, q.handle)
	return q
}

// QueueAll ставит в очередь оба размера превью для медиа
func (q *ThumbQueue) QueueAll(mediaID string) {
	for _, size := range []string{media.ThumbSmall, media.ThumbLarge} {
		q.pool.Submit(&Task{
			ID:        fmt.Sprintf("thumb-%s-%s", mediaID, size),
			Type:      TaskGenerateThumbnail,
			MediaID:   mediaID,
			Size:      size,
			CreatedAt: time.Now(),
		})
	}
}

func (q *ThumbQueue) handle(ctx context.Context, task *Task) error {
	m, err := q.store.GetMedia(task.MediaID)
	if err != nil {
		return fmt.Errorf("load media %s: %w", task.MediaID, err)
	}
	if m == nil {
		// Медиа успели удалить, превью не нужно
		return nil
	}

	srcPath := q.blobs.Path(m.Filename)
	thumbPath, err := q.thumbs.Generate(m, srcPath, task.Size)
	if err != nil {
		return fmt.Errorf("generate %s thumbnail for %s: %w", task.Size, m.ID, err)
	}

	switch task.Size {
	case media.ThumbSmall:
		m.ThumbSmall = thumbPath
	case media.ThumbLarge:
		m.ThumbLarge = thumbPath
	}
	if err := q.store.UpdateMedia(m); err != nil {
		logger.ErrorLog.Printf("[THUMBS] failed to save thumbnail path for %s: %v", m.ID, err)
	}

	logger.InfoLog.Printf("[THUMBS] generated %s thumbnail for %s", task.Size, m.ID)
	return nil
}
