package auth

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Jordanrcarlson/jordancloud/internal/config"
	"github.com/Jordanrcarlson/jordancloud/internal/storage"
)

func newTestGate(t *testing.T) (*Gate, *storage.Store) {
	t.Helper()

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.Auth.PersonalPassword = "secret"

	gate, err := NewGate(cfg, store)
	require.NoError(t, err)
	return gate, store
}

func TestGateRequiresPassword(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = NewGate(config.Default(), store)
	require.Error(t, err)
}

func TestVerifyWrongPassword(t *testing.T) {
	gate, _ := newTestGate(t)

	_, err := gate.Verify("wrong")
	require.ErrorIs(t, err, ErrWrongPassword)
}

func TestVerifyCreatesSession(t *testing.T) {
	gate, _ := newTestGate(t)

	sess, err := gate.Verify("secret")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.True(t, sess.ExpiresAt.After(time.Now()))

	require.True(t, gate.ValidateSession(sess.ID))
}

func TestLogoutInvalidatesSession(t *testing.T) {
	gate, _ := newTestGate(t)

	sess, err := gate.Verify("secret")
	require.NoError(t, err)

	gate.Logout(sess.ID)
	require.False(t, gate.ValidateSession(sess.ID))
}

func TestExpiredSessionRejected(t *testing.T) {
	gate, store := newTestGate(t)

	sess := &storage.Session{
		ID:        storage.NewID(),
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, store.SaveSession(sess))

	require.False(t, gate.ValidateSession(sess.ID))

	// Истекшая сессия удаляется при проверке
	got, err := store.GetSession(sess.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestValidateUnknownSession(t *testing.T) {
	gate, _ := newTestGate(t)

	require.False(t, gate.ValidateSession(""))
	require.False(t, gate.ValidateSession("no-such-session"))
}

func TestFromRequestCookie(t *testing.T) {
	gate, _ := newTestGate(t)

	sess, err := gate.Verify("secret")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/media", nil)
	require.False(t, gate.FromRequest(r))

	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.ID})
	require.True(t, gate.FromRequest(r))
}

func TestPrehashedPassword(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Auth.PersonalPasswordHash = string(hash)

	gate, err := NewGate(cfg, store)
	require.NoError(t, err)

	_, err = gate.Verify("wrong")
	require.ErrorIs(t, err, ErrWrongPassword)

	_, err = gate.Verify("hunter2")
	require.NoError(t, err)
}
