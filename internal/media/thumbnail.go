package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/Jordanrcarlson/jordancloud/internal/config"
	"github.com/Jordanrcarlson/jordancloud/internal/storage"
)

// Размеры превью
const (
	ThumbSmall = "small"
	ThumbLarge = "large"
)

// Thumbnailer генерирует превью для медиа-файлов
type Thumbnailer struct {
	cfg       *config.Config
	cachePath string
}

// NewThumbnailer создает новый генератор превью
func NewThumbnailer(cfg *config.Config) *Thumbnailer {
	return &Thumbnailer{
		cfg:       cfg,
		cachePath: cfg.Storage.ThumbsPath,
	}
}

// EnsureCacheDir создает директорию кэша если не существует
func (t *Thumbnailer) EnsureCacheDir() error {
	return os.MkdirAll(filepath.Join(t.cachePath, "thumbs"), 0755)
}

// Path возвращает путь к превью
func (t *Thumbnailer) Path(mediaID string, size string) string {
	return filepath.Join(t.cachePath, "thumbs", fmt.Sprintf("%s_%s.jpg", mediaID, size))
}

// Exists проверяет существование превью
func (t *Thumbnailer) Exists(mediaID string, size string) bool {
	_, err := os.Stat(t.Path(mediaID, size))
	return err == nil
}

// Delete удаляет все превью для медиа-файла
func (t *Thumbnailer) Delete(mediaID string) {
	for _, size := range []string{ThumbSmall, ThumbLarge} {
		os.Remove(t.Path(mediaID, size)) // игнорируем ошибки - файла может не быть
	}
}

// Generate генерирует превью из исходного файла srcPath
func (t *Thumbnailer) Generate(m *storage.Media, srcPath string, size string) (string, error) {
	if err := t.EnsureCacheDir(); err != nil {
		return "", err
	}

	thumbPath := t.Path(m.ID, size)

	// Если превью уже существует, возвращаем путь
	if _, err := os.Stat(thumbPath); err == nil {
		return thumbPath, nil
	}

	maxSize := t.cfg.Thumbnails.Small
	if size == ThumbLarge {
		maxSize = t.cfg.Thumbnails.Large
	}

	var img image.Image
	var err error

	switch m.Type {
	case storage.MediaTypeImage:
		// AutoOrientation применяет EXIF-поворот при загрузке
		img, err = imaging.Open(srcPath, imaging.AutoOrientation(true))
	case storage.MediaTypeVideo:
		img, err = t.extractVideoFrame(srcPath)
	default:
		return "", fmt.Errorf("unsupported media type: %s", m.Type)
	}

	if err != nil {
		return "", fmt.Errorf("failed to load source: %w", err)
	}

	// Ресайзим с сохранением пропорций
	thumb := imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)

	out, err := os.Create(thumbPath)
	if err != nil {
		return "", fmt.Errorf("failed to create thumbnail file: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: t.cfg.Thumbnails.Quality}); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return thumbPath, nil
}

// extractVideoFrame извлекает кадр из видео через ffmpeg
func (t *Thumbnailer) extractVideoFrame(path string) (image.Image, error) {
	// ffmpeg -i video.mp4 -ss 00:00:01 -vframes 1 -f image2pipe -vcodec mjpeg -
	cmd := exec.Command(t.cfg.Thumbnails.Ffmpeg,
		"-i", path,
		"-ss", "00:00:01",
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)

	output, err := cmd.Output()
	if err != nil {
		// Пробуем с начала файла, если 1 секунда недоступна
		cmd = exec.Command(t.cfg.Thumbnails.Ffmpeg,
			"-i", path,
			"-vframes", "1",
			"-f", "image2pipe",
			"-vcodec", "mjpeg",
			"-",
		)
		output, err = cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("ffmpeg failed: %w", err)
		}
	}

	img, _, err := image.Decode(bytes.NewReader(output))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}

	return img, nil
}
