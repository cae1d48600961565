package configwatcher

import (
	"english_club_backend/internal/config"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeAttendance(t *testing.T, path string, xp int) {
	t.Helper()
	body := fmt.Sprintf("server:\n  mode: test\nstorage:\n  type: minio\nxp:\n  attendance: %d\n", xp)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeAttendance(t, path, 30)

	reloaded := make(chan *config.Config, 1)
	w, err := New(path, func(cfg *config.Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	go w.Run()
	defer w.Close()

	writeAttendance(t, path, 45)

	select {
	case cfg := <-reloaded:
		require.Equal(t, 45, cfg.XP.Attendance)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
