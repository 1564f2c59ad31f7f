package media

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// Регистрируем парсеры maker notes для разных производителей
	exif.RegisterParsers(mknote.All...)
}

// extractTakenAt извлекает дату съемки из EXIF.
// Возвращает нулевое время, если EXIF нет или дата отсутствует —
// это нормально, не ошибка.
func extractTakenAt(data []byte) time.Time {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return time.Time{}
	}

	tm, err := x.DateTime()
	if err != nil {
		return time.Time{}
	}
	return tm
}
