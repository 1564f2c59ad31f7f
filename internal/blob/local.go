package blob

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// URLPrefix префикс публичных URL для раздачи файлов
const URLPrefix = "/images/"

const suffixChars = "abcdefghijklmnopqrstuvwxyz0123456789"
const suffixLen = 6

// Store хранит бинарные файлы в одной директории на диске.
// Раздел (public/personal) — это атрибут метаданных, не путь.
type Store struct {
	dir string
}

// NewStore создает файловое хранилище поверх директории
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir возвращает корневую директорию хранилища
func (s *Store) Dir() string {
	return s.dir
}

// GenerateFilename генерирует имя вида <unixmillis>-<6 символов>.<ext>.
// Уникальность обеспечивается меткой времени и случайным суффиксом,
// без блокировок.
func (s *Store) GenerateFilename(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), randomSuffix(), ext)
}

// Write записывает файл. Запись идёт во временный файл с переименованием,
// чтобы наблюдатель не увидел недописанный файл.
func (s *Store) Write(filename string, data []byte) error {
	path := s.Path(filename)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to place blob: %w", err)
	}
	return nil
}

// Read читает файл целиком
func (s *Store) Read(filename string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Exists проверяет наличие файла на диске
func (s *Store) Exists(filename string) bool {
	info, err := os.Stat(s.Path(filename))
	return err == nil && !info.IsDir()
}

// Remove удаляет файл. Отсутствующий файл — не ошибка.
func (s *Store) Remove(filename string) error {
	err := os.Remove(s.Path(filename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	return nil
}

// List возвращает имена всех файлов в хранилище
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read images directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Path возвращает полный путь к файлу на диске
func (s *Store) Path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

// URL возвращает публичный URL файла
func (s *Store) URL(filename string) string {
	return URLPrefix + filepath.Base(filename)
}

// FilenameFromURL извлекает имя файла из публичного URL
func FilenameFromURL(url string) string {
	return filepath.Base(url)
}

func randomSuffix() string {
	b := make([]byte, suffixLen)
	rand.Read(b)
	for i := range b {
		b[i] = suffixChars[int(b[i])%len(suffixChars)]
	}
	return string(b)
}
