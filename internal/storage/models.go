package storage

import (
	"time"
)

// MediaType определяет тип медиа-файла
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// Folder определяет раздел видимости медиа
type Folder string

const (
	FolderPublic   Folder = "public"
	FolderPersonal Folder = "personal"
)

// ValidFolder проверяет, известен ли раздел
func ValidFolder(f Folder) bool {
	return f == FolderPublic || f == FolderPersonal
}

// Media представляет загруженный медиа-файл
type Media struct {
	ID         string     `json:"id"`                    // Случайный hex, присваивается при вставке
	URL        string     `json:"url"`                   // /images/<filename>, уникален
	Filename   string     `json:"filename"`              // Имя файла на диске
	Folder     Folder     `json:"folder"`                // public или personal
	Type       MediaType  `json:"type"`                  // image, video
	MimeType   string     `json:"mime_type"`             // MIME тип
	Size       int64      `json:"size"`                  // Размер в байтах
	TakenAt    time.Time  `json:"taken_at"`              // Дата съемки (EXIF)
	CreatedAt  time.Time  `json:"created_at"`            // Дата добавления в БД
	DeletedAt  *time.Time `json:"deleted_at"`            // Дата удаления (nil = не удалено)
	ThumbSmall string     `json:"thumb_small,omitempty"` // Путь к маленькому превью
	ThumbLarge string     `json:"thumb_large,omitempty"` // Путь к большому превью
}

// IsDeleted сообщает, находится ли медиа в корзине
func (m *Media) IsDeleted() bool {
	return m.DeletedAt != nil
}

// Album представляет альбом (коллекцию медиа)
type Album struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	MediaCount  int       `json:"media_count"` // Кэшированное количество
}

// Session представляет доступ к личной папке
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Stats содержит статистику галереи
type Stats struct {
	TotalMedia    int   `json:"total_media"`
	TotalImages   int   `json:"total_images"`
	TotalVideos   int   `json:"total_videos"`
	TotalPublic   int   `json:"total_public"`
	TotalPersonal int   `json:"total_personal"`
	TotalDeleted  int   `json:"total_deleted"`
	TotalSize     int64 `json:"total_size"`
}

// ListFilter задаёт параметры выборки медиа
type ListFilter struct {
	Folder  Folder // Пустое значение = все разделы
	Deleted bool   // true = только корзина, false = только активные
}
