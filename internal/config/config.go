package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Upload     UploadConfig     `yaml:"upload"`
	Thumbnails ThumbnailsConfig `yaml:"thumbnails"`
	Auth       AuthConfig       `yaml:"auth"`
	Cleanup    CleanupConfig    `yaml:"cleanup"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StorageConfig struct {
	ImagesPath string `yaml:"images_path"`
	ThumbsPath string `yaml:"thumbs_path"`
	DBPath     string `yaml:"db_path"`
	LogsPath   string `yaml:"logs_path"`
}

type UploadConfig struct {
	MaxSizeMB    int      `yaml:"max_size_mb"`
	AllowedTypes []string `yaml:"allowed_types"` // Префиксы MIME (image/, video/)
}

type ThumbnailsConfig struct {
	Small   int    `yaml:"small"`
	Large   int    `yaml:"large"`
	Quality int    `yaml:"quality"` // JPEG quality (0-100)
	Ffmpeg  string `yaml:"ffmpeg"`
}

type AuthConfig struct {
	PersonalPassword     string `yaml:"personal_password"`      // Пароль личной папки (хешируется при старте)
	PersonalPasswordHash string `yaml:"personal_password_hash"` // Либо готовый bcrypt-хеш
	SessionMaxAge        int    `yaml:"session_max_age"`
}

type CleanupConfig struct {
	RetentionDays        int `yaml:"retention_days"`         // Сколько дней хранить мягко удалённое
	ReconcileIntervalMin int `yaml:"reconcile_interval_min"` // Период сверки с диском (минуты)
	PurgeIntervalHours   int `yaml:"purge_interval_hours"`   // Период чистки корзины (часы)
}

// Load читает конфигурацию из YAML-файла
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Установка значений по умолчанию
	cfg.setDefaults()

	return &cfg, nil
}

// Default возвращает конфигурацию по умолчанию (без файла)
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.ImagesPath == "" {
		c.Storage.ImagesPath = "./public/images"
	}
	if c.Storage.ThumbsPath == "" {
		c.Storage.ThumbsPath = "./cache"
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = "./data/jordancloud.db"
	}
	if c.Storage.LogsPath == "" {
		c.Storage.LogsPath = "./logs"
	}
	if c.Upload.MaxSizeMB == 0 {
		c.Upload.MaxSizeMB = 10
	}
	if len(c.Upload.AllowedTypes) == 0 {
		c.Upload.AllowedTypes = []string{"image/", "video/"}
	}
	if c.Thumbnails.Small == 0 {
		c.Thumbnails.Small = 300
	}
	if c.Thumbnails.Large == 0 {
		c.Thumbnails.Large = 1200
	}
	if c.Thumbnails.Quality == 0 {
		c.Thumbnails.Quality = 85
	}
	if c.Thumbnails.Ffmpeg == "" {
		c.Thumbnails.Ffmpeg = "ffmpeg"
	}
	if c.Auth.SessionMaxAge == 0 {
		c.Auth.SessionMaxAge = 86400
	}
	if c.Cleanup.RetentionDays == 0 {
		c.Cleanup.RetentionDays = 30
	}
	if c.Cleanup.ReconcileIntervalMin == 0 {
		c.Cleanup.ReconcileIntervalMin = 60
	}
	if c.Cleanup.PurgeIntervalHours == 0 {
		c.Cleanup.PurgeIntervalHours = 24
	}
}

// MaxUploadBytes возвращает лимит размера загрузки в байтах
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Upload.MaxSizeMB) * 1024 * 1024
}

// IsAllowedMime проверяет, разрешён ли MIME-тип для загрузки
func (c *Config) IsAllowedMime(mime string) bool {
	for _, prefix := range c.Upload.AllowedTypes {
		if strings.HasPrefix(mime, prefix) {
			return true
		}
	}
	return false
}
