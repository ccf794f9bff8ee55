package syncstatus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"invtrack/internal/testutil"
)

var est = time.FixedZone("EST", -5*60*60)

func TestStatus_Text(t *testing.T) {
	s := Status{LastCompletedAt: time.Date(2024, 5, 1, 18, 30, 5, 0, time.UTC).In(est)}
	want := "Database was last updated at 2024-05-01 13:30:05 EST"
	if got := s.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}

	parsed, err := ParseText(want+"\n", est)
	testutil.AssertNoError(t, err)
	if !parsed.LastCompletedAt.Equal(s.LastCompletedAt) {
		t.Errorf("expected %v, got %v", s.LastCompletedAt, parsed.LastCompletedAt)
	}
}

func TestParseText_Invalid(t *testing.T) {
	if _, err := ParseText("Database was last updated at yesterday", est); err == nil {
		t.Error("expected an error for an unparsable marker")
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db_last_updated.txt")
	store := NewFileStore(path, est)

	t.Run("read_before_write", func(t *testing.T) {
		_, err := store.Read(ctx)
		testutil.AssertAppError(t, err, "SYNC_STATUS_NOT_FOUND")
	})

	t.Run("write_then_read", func(t *testing.T) {
		completed := time.Date(2024, 5, 1, 18, 30, 5, 0, time.UTC)
		testutil.AssertNoError(t, store.Write(ctx, Status{LastCompletedAt: completed}))

		data, err := os.ReadFile(path)
		testutil.AssertNoError(t, err)
		if string(data) != "Database was last updated at 2024-05-01 13:30:05 EST" {
			t.Errorf("unexpected marker contents %q", data)
		}

		got, err := store.Read(ctx)
		testutil.AssertNoError(t, err)
		if !got.LastCompletedAt.Equal(completed) {
			t.Errorf("expected %v, got %v", completed, got.LastCompletedAt)
		}
	})

	t.Run("overwrite_leaves_no_temp_files", func(t *testing.T) {
		testutil.AssertNoError(t, store.Write(ctx, Status{LastCompletedAt: time.Now()}))
		testutil.AssertNoError(t, store.Write(ctx, Status{LastCompletedAt: time.Now()}))

		entries, err := os.ReadDir(filepath.Dir(path))
		testutil.AssertNoError(t, err)
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".tmp") {
				t.Errorf("leftover temp file %s", e.Name())
			}
		}
		if len(entries) != 1 {
			t.Errorf("expected only the marker file, got %d entries", len(entries))
		}
	})

	t.Run("corrupt_marker", func(t *testing.T) {
		testutil.AssertNoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
		_, err := store.Read(ctx)
		testutil.AssertAppError(t, err, "INTERNAL_ERROR")
	})

	t.Run("unwritable_directory", func(t *testing.T) {
		bad := NewFileStore(filepath.Join(t.TempDir(), "missing", "marker.txt"), est)
		if err := bad.Write(ctx, Status{LastCompletedAt: time.Now()}); err == nil {
			t.Error("expected an error writing into a missing directory")
		}
	})
}
