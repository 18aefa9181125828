package textcontent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "text-content.txt")
	require.NoError(t, os.WriteFile(path, []byte("# Hero\nhero_title: First\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	w, err := NewWatcher(ctx, path)
	require.NoError(t, err)
	require.Equal(t, "First", w.Current().Hero.Title)

	reloaded := make(chan string, 8)
	w.OnReload(func(c TextContent) {
		select {
		case reloaded <- c.Hero.Title:
		default:
		}
	})

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("# Hero\nhero_title: Second\n"), 0o644)
		return w.Fetch(ctx).Hero.Title == "Second"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	require.NotEmpty(t, reloaded)
}

func TestWatcher_KeepsSnapshotAcrossRenameSave(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "text-content.txt")
	require.NoError(t, os.WriteFile(path, []byte("# Hero\nhero_title: First\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	rec := &countingRecorder{}
	w, err := NewWatcher(ctx, path, WithRecorder(rec))
	require.NoError(t, err)

	titles := make(chan string, 64)
	w.OnReload(func(c TextContent) {
		select {
		case titles <- c.Hero.Title:
		default:
		}
	})

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("# Hero\nhero_title: First\n"), 0o644)
		return len(titles) > 0
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, os.Rename(path, filepath.Join(dir, "text-content.txt~")))
	require.NoError(t, os.WriteFile(path, []byte("# Hero\nhero_title: Second\n"), 0o644))
	require.Eventually(t, func() bool {
		return w.Current().Hero.Title == "Second"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	require.Empty(t, rec.fallbacks)
}

func TestWatcher_MissingFileServesEmpty(t *testing.T) {
	w, err := NewWatcher(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	require.NoError(t, err)
	require.True(t, w.Current().IsEmpty())

	_, err = NewWatcher(context.Background(), "")
	require.Error(t, err)
}
