package location

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeRoute(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "route.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write route file: %v", err)
	}
	return path
}

const testRoute = `[
	{"latitude": 40.0, "longitude": -3.0, "accuracy": 5, "speed": 2.5},
	{"latitude": 40.0001, "longitude": -3.0, "accuracy": 6, "speed": 2.7},
	{"latitude": 40.0002, "longitude": -3.0, "accuracy": 4, "speed": 2.9}
]`

func TestReplaySourceEmitsAllPoints(t *testing.T) {
	source, err := NewReplaySource(writeRoute(t, testRoute), 5*time.Millisecond, Options{}, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReplaySource: %v", err)
	}

	var mu sync.Mutex
	var fixes []Fix
	err = source.Start(func(f Fix) {
		mu.Lock()
		fixes = append(fixes, f)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-source.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("replay did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(fixes) != 3 {
		t.Fatalf("emitted %d fixes, want 3", len(fixes))
	}
	if fixes[1].Latitude != 40.0001 || fixes[1].Speed != 2.7 {
		t.Fatalf("unexpected second fix: %+v", fixes[1])
	}
	for _, f := range fixes {
		if f.Timestamp <= 0 {
			t.Fatalf("fix missing emission timestamp: %+v", f)
		}
	}
}

func TestReplaySourceStopIsIdempotent(t *testing.T) {
	source, err := NewReplaySource(writeRoute(t, testRoute), time.Hour, Options{}, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReplaySource: %v", err)
	}

	if err := source.Start(func(Fix) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	source.Stop()
	source.Stop()
	source.Stop()

	select {
	case <-source.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
}

func TestReplaySourceDoubleStartFails(t *testing.T) {
	source, err := NewReplaySource(writeRoute(t, testRoute), time.Hour, Options{}, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReplaySource: %v", err)
	}
	defer source.Stop()

	if err := source.Start(func(Fix) {}); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := source.Start(func(Fix) {}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("second Start = %v, want ErrUnavailable", err)
	}
}

func TestReplaySourceUnavailable(t *testing.T) {
	cases := map[string]func(t *testing.T) string{
		"missing file": func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "nope.json")
		},
		"malformed json": func(t *testing.T) string {
			return writeRoute(t, `{"not": "a route"}`)
		},
		"empty route": func(t *testing.T) string {
			return writeRoute(t, `[]`)
		},
	}

	for name, makePath := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewReplaySource(makePath(t), time.Second, Options{}, false, zap.NewNop())
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("NewReplaySource = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestReplaySourceReloadsRouteOnChange(t *testing.T) {
	path := writeRoute(t, testRoute)
	source, err := NewReplaySource(path, 5*time.Millisecond, Options{}, true, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReplaySource: %v", err)
	}
	defer source.Close()

	longer := `[
		{"latitude": 41.0, "longitude": -3.0, "accuracy": 5, "speed": 2.0},
		{"latitude": 41.0001, "longitude": -3.0, "accuracy": 5, "speed": 2.0},
		{"latitude": 41.0002, "longitude": -3.0, "accuracy": 5, "speed": 2.0},
		{"latitude": 41.0003, "longitude": -3.0, "accuracy": 5, "speed": 2.0}
	]`
	if err := os.WriteFile(path, []byte(longer), 0644); err != nil {
		t.Fatalf("rewrite route: %v", err)
	}

	// The watcher delivers asynchronously; poll until the reload lands
	deadline := time.Now().Add(2 * time.Second)
	for {
		source.mu.Lock()
		n := len(source.points)
		source.mu.Unlock()
		if n == 4 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("route not reloaded, still %d points", n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
