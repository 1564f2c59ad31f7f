package storage

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID генерирует случайный идентификатор записи
func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
