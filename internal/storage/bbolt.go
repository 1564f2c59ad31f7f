package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Jordanrcarlson/jordancloud/internal/logger"
)

// Имена buckets
var (
	bucketMedia      = []byte("media")
	bucketAlbums     = []byte("albums")
	bucketAlbumItems = []byte("album_items")
	bucketSessions   = []byte("sessions")
	bucketIdxURL     = []byte("idx_url")
	bucketIdxFolder  = []byte("idx_folder")
)

// ErrAlbumNotFound возвращается операциями над несуществующим альбомом
var ErrAlbumNotFound = fmt.Errorf("album not found")

// Store обертка над bbolt
type Store struct {
	db     *bolt.DB
	dbPath string
}

// NewStore создает новое хранилище
func NewStore(dbPath string) (*Store, error) {
	// Создаем директорию для БД если не существует
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	opts := &bolt.Options{
		Timeout:      5 * time.Second,
		NoSync:       false, // Sync после каждой транзакции
		FreelistType: bolt.FreelistMapType,
	}

	db, err := bolt.Open(dbPath, 0600, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt: %w", err)
	}

	// Создаем все buckets
	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketMedia, bucketAlbums, bucketAlbumItems,
			bucketSessions, bucketIdxURL, bucketIdxFolder,
		}
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.InfoLog.Printf("[DB] bbolt opened: %s", dbPath)

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close закрывает хранилище
func (s *Store) Close() error {
	if err := s.db.Sync(); err != nil {
		logger.ErrorLog.Printf("[DB] sync failed: %v", err)
	}
	err := s.db.Close()
	if err != nil {
		logger.ErrorLog.Printf("[DB] close failed: %v", err)
	} else {
		logger.InfoLog.Printf("[DB] bbolt closed")
	}
	return err
}

// === Media операции ===

// InsertMedia вставляет новую запись, присваивая ID и CreatedAt
func (s *Store) InsertMedia(m *Media) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		// URL должен быть уникален
		if existing := tx.Bucket(bucketIdxURL).Get([]byte(m.URL)); existing != nil {
			return fmt.Errorf("duplicate url: %s", m.URL)
		}

		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketMedia).Put([]byte(m.ID), data); err != nil {
			return err
		}
		if err := tx.Bucket(bucketIdxURL).Put([]byte(m.URL), []byte(m.ID)); err != nil {
			return err
		}
		return addToIndex(tx, bucketIdxFolder, string(m.Folder), m.ID)
	})
}

// UpdateMedia перезаписывает существующую запись
func (s *Store) UpdateMedia(m *Media) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMedia).Put([]byte(m.ID), data)
	})
}

// GetMedia получает медиа по ID
func (s *Store) GetMedia(id string) (*Media, error) {
	var media Media
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketMedia).Get([]byte(id))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &media)
	})
	if err != nil {
		return nil, err
	}
	if media.ID == "" {
		return nil, nil
	}
	return &media, nil
}

// GetMediaByURL получает медиа по URL
func (s *Store) GetMediaByURL(url string) (*Media, error) {
	var id string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketIdxURL).Get([]byte(url)); v != nil {
			id = string(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	return s.GetMedia(id)
}

// ListMedia возвращает медиа по фильтру, новые первыми
func (s *Store) ListMedia(filter ListFilter) ([]*Media, error) {
	var result []*Media
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMedia)
		return b.ForEach(func(k, v []byte) error {
			var media Media
			if err := json.Unmarshal(v, &media); err != nil {
				return nil // skip invalid
			}
			if filter.Folder != "" && media.Folder != filter.Folder {
				return nil
			}
			if filter.Deleted != media.IsDeleted() {
				return nil
			}
			result = append(result, &media)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].IsDeleted() && result[j].IsDeleted() {
			return result[i].DeletedAt.After(*result[j].DeletedAt)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// ListActiveMedia возвращает все не удалённые медиа
func (s *Store) ListActiveMedia() ([]*Media, error) {
	var result []*Media
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMedia)
		return b.ForEach(func(k, v []byte) error {
			var media Media
			if err := json.Unmarshal(v, &media); err != nil {
				return nil
			}
			if !media.IsDeleted() {
				result = append(result, &media)
			}
			return nil
		})
	})
	return result, err
}

// SoftDeleteMedia помечает набор медиа как удалённые одной транзакцией.
// Повторное удаление обновляет метку времени на текущую.
// Возвращает количество затронутых записей.
func (s *Store) SoftDeleteMedia(ids []string) (int, error) {
	now := time.Now()
	updated := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMedia)
		for _, id := range ids {
			data := b.Get([]byte(id))
			if data == nil {
				continue // Неизвестный ID пропускаем
			}
			var media Media
			if err := json.Unmarshal(data, &media); err != nil {
				continue
			}
			ts := now
			media.DeletedAt = &ts

			newData, err := json.Marshal(&media)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(id), newData); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// SoftDeleteByURL помечает удалённой активную запись с данным URL.
// Если активной записи нет (уже удалена или неизвестна) — это no-op.
func (s *Store) SoftDeleteByURL(url string) (bool, error) {
	media, err := s.GetMediaByURL(url)
	if err != nil {
		return false, err
	}
	if media == nil || media.IsDeleted() {
		return false, nil
	}

	_, err = s.SoftDeleteMedia([]string{media.ID})
	if err != nil {
		return false, err
	}
	return true, nil
}

// RestoreMedia восстанавливает медиа из корзины.
// Возвращает false, если запись не найдена.
func (s *Store) RestoreMedia(id string) (bool, error) {
	media, err := s.GetMedia(id)
	if err != nil {
		return false, err
	}
	if media == nil {
		return false, nil
	}
	if media.DeletedAt == nil {
		return true, nil
	}

	media.DeletedAt = nil
	return true, s.UpdateMedia(media)
}

// DeleteMedia удаляет запись навсегда вместе со связями
func (s *Store) DeleteMedia(id string) error {
	media, err := s.GetMedia(id)
	if err != nil {
		return err
	}
	if media == nil {
		return nil
	}

	// Удаляем из всех альбомов
	if err := s.removeMediaFromAllAlbums(id); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketIdxURL).Delete([]byte(media.URL)); err != nil {
			return err
		}
		if err := removeFromIndex(tx, bucketIdxFolder, string(media.Folder), id); err != nil {
			return err
		}
		return tx.Bucket(bucketMedia).Delete([]byte(id))
	})
}

// PurgeTrash удаляет навсегда записи, находящиеся в корзине дольше olderThan.
// Возвращает удалённые записи, чтобы вызывающий мог убрать файлы с диска.
func (s *Store) PurgeTrash(olderThan time.Duration) ([]*Media, error) {
	trash, err := s.ListMedia(ListFilter{Deleted: true})
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-olderThan)
	var purged []*Media

	for _, m := range trash {
		if m.DeletedAt != nil && m.DeletedAt.Before(cutoff) {
			if err := s.DeleteMedia(m.ID); err != nil {
				logger.ErrorLog.Printf("[DB] error purging media %s: %v", m.ID, err)
				continue
			}
			purged = append(purged, m)
		}
	}

	return purged, nil
}

// GetStats возвращает статистику
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMedia)
		return b.ForEach(func(k, v []byte) error {
			var media Media
			if err := json.Unmarshal(v, &media); err != nil {
				return nil
			}
			if media.IsDeleted() {
				stats.TotalDeleted++
				return nil
			}
			stats.TotalMedia++
			stats.TotalSize += media.Size

			switch media.Type {
			case MediaTypeImage:
				stats.TotalImages++
			case MediaTypeVideo:
				stats.TotalVideos++
			}
			switch media.Folder {
			case FolderPublic:
				stats.TotalPublic++
			case FolderPersonal:
				stats.TotalPersonal++
			}
			return nil
		})
	})

	return stats, err
}

// === Вспомогательные функции для индексов ===

func addToIndex(tx *bolt.Tx, bucket []byte, key, id string) error {
	b := tx.Bucket(bucket)
	var ids []string

	data := b.Get([]byte(key))
	if data != nil {
		json.Unmarshal(data, &ids)
	}

	// Проверяем дубликаты
	for _, existingID := range ids {
		if existingID == id {
			return nil
		}
	}

	ids = append(ids, id)
	newData, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), newData)
}

func removeFromIndex(tx *bolt.Tx, bucket []byte, key, id string) error {
	b := tx.Bucket(bucket)
	data := b.Get([]byte(key))
	if data == nil {
		return nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil
	}

	var newIDs []string
	for _, existingID := range ids {
		if existingID != id {
			newIDs = append(newIDs, existingID)
		}
	}

	if len(newIDs) == 0 {
		return b.Delete([]byte(key))
	}

	newData, err := json.Marshal(newIDs)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), newData)
}

func (s *Store) getIndex(bucket []byte, key string) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &ids)
	})
	return ids, err
}

// === Album операции ===

// SaveAlbum сохраняет альбом
func (s *Store) SaveAlbum(album *Album) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(album)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketAlbums).Put([]byte(album.ID), data)
	})
}

// GetAlbum получает альбом по ID
func (s *Store) GetAlbum(id string) (*Album, error) {
	var album Album
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketAlbums).Get([]byte(id))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &album)
	})
	if err != nil {
		return nil, err
	}
	if album.ID == "" {
		return nil, nil
	}
	return &album, nil
}

// DeleteAlbum удаляет альбом вместе с записями членства
func (s *Store) DeleteAlbum(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketAlbumItems).Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket(bucketAlbums).Delete([]byte(id))
	})
}

// ListAlbums возвращает все альбомы
func (s *Store) ListAlbums() ([]*Album, error) {
	var result []*Album
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAlbums)
		return b.ForEach(func(k, v []byte) error {
			var album Album
			if err := json.Unmarshal(v, &album); err != nil {
				return nil
			}
			result = append(result, &album)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// AddMediaToAlbum добавляет медиа в альбом.
// Дубликаты (album_id, media_id) молча игнорируются.
func (s *Store) AddMediaToAlbum(albumID string, mediaIDs []string) error {
	album, err := s.GetAlbum(albumID)
	if err != nil {
		return err
	}
	if album == nil {
		return ErrAlbumNotFound
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		for _, id := range mediaIDs {
			if err := addToIndex(tx, bucketAlbumItems, albumID, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.refreshAlbumCount(album)
}

// RemoveMediaFromAlbum удаляет медиа из альбома
func (s *Store) RemoveMediaFromAlbum(albumID string, mediaIDs []string) error {
	album, err := s.GetAlbum(albumID)
	if err != nil {
		return err
	}
	if album == nil {
		return ErrAlbumNotFound
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		for _, id := range mediaIDs {
			if err := removeFromIndex(tx, bucketAlbumItems, albumID, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.refreshAlbumCount(album)
}

// GetAlbumItems возвращает ID медиа в альбоме
func (s *Store) GetAlbumItems(albumID string) ([]string, error) {
	return s.getIndex(bucketAlbumItems, albumID)
}

// GetAlbumMedia получает медиа из альбома.
// Записи, которых больше нет или которые в корзине, отфильтровываются.
func (s *Store) GetAlbumMedia(albumID string) ([]*Media, error) {
	ids, err := s.GetAlbumItems(albumID)
	if err != nil {
		return nil, err
	}

	var result []*Media
	for _, id := range ids {
		media, err := s.GetMedia(id)
		if err != nil {
			continue
		}
		if media != nil && !media.IsDeleted() {
			result = append(result, media)
		}
	}
	return result, nil
}

func (s *Store) refreshAlbumCount(album *Album) error {
	ids, err := s.GetAlbumItems(album.ID)
	if err != nil {
		return err
	}
	album.MediaCount = len(ids)
	album.UpdatedAt = time.Now()
	return s.SaveAlbum(album)
}

// removeMediaFromAllAlbums удаляет медиа из всех альбомов
func (s *Store) removeMediaFromAllAlbums(mediaID string) error {
	albums, err := s.ListAlbums()
	if err != nil {
		return err
	}

	for _, album := range albums {
		ids, err := s.GetAlbumItems(album.ID)
		if err != nil {
			continue
		}
		for _, id := range ids {
			if id == mediaID {
				s.RemoveMediaFromAlbum(album.ID, []string{mediaID})
				break
			}
		}
	}
	return nil
}

// === Session операции ===

// SaveSession сохраняет сессию
func (s *Store) SaveSession(sess *Session) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(sess)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketSessions).Put([]byte(sess.ID), data)
	})
}

// GetSession получает сессию
func (s *Store) GetSession(id string) (*Session, error) {
	var sess Session
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSessions).Get([]byte(id))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &sess)
	})
	if err != nil {
		return nil, err
	}
	if sess.ID == "" {
		return nil, nil
	}
	return &sess, nil
}

// DeleteSession удаляет сессию
func (s *Store) DeleteSession(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(id))
	})
}
