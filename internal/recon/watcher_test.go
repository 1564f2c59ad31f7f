package recon

import (
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestWatcherMarksExternallyRemovedFile(t *testing.T) {
	store, blobs := newTestDeps(t)
	m := insertWithBlob(t, store, blobs, "1-aaaaaa.jpg", false)

	w, err := NewWatcher(blobs.Dir(), store, blobs)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { w.Stop() })

	changed := make(chan struct{}, 1)
	w.OnChange(func() { changed <- struct{}{} })

	w.handleFSEvent(fsnotify.Event{Name: blobs.Path(m.Filename), Op: fsnotify.Remove})

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not process removal")
	}

	got, err := store.GetMedia(m.ID)
	require.NoError(t, err)
	require.True(t, got.IsDeleted())
}

func TestWatcherStopCancelsPendingEvents(t *testing.T) {
	store, blobs := newTestDeps(t)
	m := insertWithBlob(t, store, blobs, "1-aaaaaa.jpg", false)

	w, err := NewWatcher(blobs.Dir(), store, blobs)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	w.handleFSEvent(fsnotify.Event{Name: blobs.Path(m.Filename), Op: fsnotify.Remove})
	require.NoError(t, w.Stop())

	// Даём окну группировки истечь: отложенная пачка
	// не должна трогать хранилище после остановки
	time.Sleep(700 * time.Millisecond)

	got, err := store.GetMedia(m.ID)
	require.NoError(t, err)
	require.False(t, got.IsDeleted())
}

func TestWatcherIgnoresRenameWhenFileStillPresent(t *testing.T) {
	store, blobs := newTestDeps(t)
	m := insertWithBlob(t, store, blobs, "1-aaaaaa.jpg", true)

	w, err := NewWatcher(blobs.Dir(), store, blobs)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { w.Stop() })

	w.handleFSEvent(fsnotify.Event{Name: blobs.Path(m.Filename), Op: fsnotify.Rename})
	time.Sleep(700 * time.Millisecond)

	got, err := store.GetMedia(m.ID)
	require.NoError(t, err)
	require.False(t, got.IsDeleted())
}
