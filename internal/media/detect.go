package media

import (
	"strings"

	"github.com/h2non/filetype"

	"github.com/Jordanrcarlson/jordancloud/internal/storage"
)

// DetectMime определяет MIME-тип по magic bytes содержимого.
// Возвращает пустую строку, если формат не распознан.
func DetectMime(data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}

// ResolveMime выбирает рабочий MIME-тип: заявленный клиентом,
// либо определённый по содержимому, когда заявленный бесполезен.
func ResolveMime(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared == "" || declared == "application/octet-stream" {
		return DetectMime(data)
	}
	return declared
}

// TypeFromMime выводит тип медиа из MIME-типа
func TypeFromMime(mime string) (storage.MediaType, bool) {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return storage.MediaTypeImage, true
	case strings.HasPrefix(mime, "video/"):
		return storage.MediaTypeVideo, true
	default:
		return "", false
	}
}
