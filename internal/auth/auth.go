package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Jordanrcarlson/jordancloud/internal/config"
	"github.com/Jordanrcarlson/jordancloud/internal/logger"
	"github.com/Jordanrcarlson/jordancloud/internal/storage"
)

// SessionCookie имя cookie с идентификатором сессии личной папки
const SessionCookie = "personal_session"

// ErrWrongPassword возвращается при неверном пароле
var ErrWrongPassword = errors.New("wrong password")

// Gate закрывает личную папку паролем. Пароль один на всю папку,
// аккаунтов нет. Успешная проверка выдает сессию с ограниченным
// сроком жизни.
type Gate struct {
	cfg   *config.Config
	store *storage.Store
	hash  []byte
}

// NewGate создает защиту личной папки.
// Пароль берётся из конфига: либо готовый bcrypt-хэш, либо открытый
// текст, который хэшируется на старте и в памяти не остаётся.
func NewGate(cfg *config.Config, store *storage.Store) (*Gate, error) {
	var hash []byte

	switch {
	case cfg.Auth.PersonalPasswordHash != "":
		hash = []byte(cfg.Auth.PersonalPasswordHash)
	case cfg.Auth.PersonalPassword != "":
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.Auth.PersonalPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash personal password: %w", err)
		}
		hash = h
	default:
		return nil, fmt.Errorf("personal folder password is not configured")
	}

	return &Gate{cfg: cfg, store: store, hash: hash}, nil
}

// Verify проверяет пароль и при успехе создает сессию
func (g *Gate) Verify(password string) (*storage.Session, error) {
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
		logger.InfoLog.Println("[AUTH] personal folder: wrong password attempt")
		return nil, ErrWrongPassword
	}

	sess := &storage.Session{
		ID:        storage.NewID(),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Duration(g.cfg.Auth.SessionMaxAge) * time.Second),
	}
	if err := g.store.SaveSession(sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	logger.InfoLog.Printf("[AUTH] personal folder unlocked, session %s", sess.ID)
	return sess, nil
}

// ValidateSession проверяет, что сессия существует и не истекла.
// Истекшая сессия сразу удаляется.
func (g *Gate) ValidateSession(id string) bool {
	if id == "" {
		return false
	}

	sess, err := g.store.GetSession(id)
	if err != nil || sess == nil {
		return false
	}

	if time.Now().After(sess.ExpiresAt) {
		g.store.DeleteSession(id)
		return false
	}
	return true
}

// Logout удаляет сессию
func (g *Gate) Logout(id string) {
	if id == "" {
		return
	}
	if err := g.store.DeleteSession(id); err != nil {
		logger.ErrorLog.Printf("[AUTH] failed to delete session %s: %v", id, err)
	}
}

// FromRequest проверяет сессию из cookie запроса
func (g *Gate) FromRequest(r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return false
	}
	return g.ValidateSession(cookie.Value)
}

// SetCookie выставляет cookie сессии в ответ
func (g *Gate) SetCookie(w http.ResponseWriter, sess *storage.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
}

// ClearCookie сбрасывает cookie сессии
func (g *Gate) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
