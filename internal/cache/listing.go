package cache

import (
	"fmt"
	"time"

	"github.com/Jordanrcarlson/jordancloud/internal/storage"
)

// ListingCache кэширует списки медиа и статистику поверх хранилища.
// Любая мутация (загрузка, удаление, восстановление, чистка)
// сбрасывает закэшированные списки.
type ListingCache struct {
	cache *Cache
	store *storage.Store
}

// NewListingCache создает кэш списков
func NewListingCache(store *storage.Store) *ListingCache {
	return &ListingCache{
		cache: New(2*time.Minute, 5*time.Minute),
		store: store,
	}
}

func listKey(filter storage.ListFilter) string {
	return fmt.Sprintf("media:%s:%t", filter.Folder, filter.Deleted)
}

// ListMedia возвращает список медиа, кэшируя результат по фильтру
func (lc *ListingCache) ListMedia(filter storage.ListFilter) ([]*storage.Media, error) {
	val, err := lc.cache.GetOrSet(listKey(filter), func() (interface{}, error) {
		return lc.store.ListMedia(filter)
	})
	if err != nil {
		return nil, err
	}
	return val.([]*storage.Media), nil
}

// Stats возвращает статистику библиотеки с кэшированием
func (lc *ListingCache) Stats() (*storage.Stats, error) {
	val, err := lc.cache.GetOrSet("stats", func() (interface{}, error) {
		return lc.store.GetStats()
	})
	if err != nil {
		return nil, err
	}
	return val.(*storage.Stats), nil
}

// Invalidate сбрасывает все закэшированные списки и статистику
func (lc *ListingCache) Invalidate() {
	lc.cache.DeletePrefix("media:")
	lc.cache.Delete("stats")
}

// Stop останавливает фоновую очистку кэша
func (lc *ListingCache) Stop() {
	lc.cache.Stop()
}
