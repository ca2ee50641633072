package location

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RoutePoint is one coordinate of a replayed route file
type RoutePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Speed     float64 `json:"speed"`
}

// ReplaySource emits the points of a JSON route file as a fix stream at a
// fixed interval, stamping each fix at emission time. It optionally watches
// the route file and reloads it when it changes, so an edited route takes
// effect on the next run.
type ReplaySource struct {
	routeFile string
	interval  time.Duration
	opts      Options
	logger    *zap.Logger

	points  []RoutePoint
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	started  bool
	stopChan chan struct{}
	doneChan chan struct{}
	wg       sync.WaitGroup
}

// NewReplaySource creates a replay source for the given route file. When
// watch is true the file is monitored for changes until Close.
func NewReplaySource(routeFile string, interval time.Duration, opts Options, watch bool, logger *zap.Logger) (*ReplaySource, error) {
	rs := &ReplaySource{
		routeFile: routeFile,
		interval:  interval,
		opts:      opts,
		logger:    logger,
	}

	if err := rs.loadRoute(); err != nil {
		return nil, err
	}

	if watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create route watcher: %w", err)
		}
		if err := watcher.Add(routeFile); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch route file: %w", err)
		}
		rs.watcher = watcher
		go rs.watchLoop()
	}

	return rs, nil
}

func (rs *ReplaySource) loadRoute() error {
	data, err := os.ReadFile(rs.routeFile)
	if err != nil {
		return fmt.Errorf("%w: failed to read route file %s: %v", ErrUnavailable, rs.routeFile, err)
	}

	var points []RoutePoint
	if err := json.Unmarshal(data, &points); err != nil {
		return fmt.Errorf("%w: malformed route file %s: %v", ErrUnavailable, rs.routeFile, err)
	}
	if len(points) == 0 {
		return fmt.Errorf("%w: route file %s has no points", ErrUnavailable, rs.routeFile)
	}

	rs.mu.Lock()
	rs.points = points
	rs.mu.Unlock()

	rs.logger.Info("Route loaded",
		zap.String("route_file", rs.routeFile),
		zap.Int("points", len(points)),
	)
	return nil
}

func (rs *ReplaySource) watchLoop() {
	for {
		select {
		case event, ok := <-rs.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := rs.loadRoute(); err != nil {
					rs.logger.Warn("Route reload failed, keeping previous route", zap.Error(err))
				}
			}
		case err, ok := <-rs.watcher.Errors:
			if !ok {
				return
			}
			rs.logger.Warn("Route watcher error", zap.Error(err))
		}
	}
}

// Start begins emitting fixes. It fails with ErrUnavailable if the source is
// already delivering.
func (rs *ReplaySource) Start(onFix func(Fix)) error {
	rs.mu.Lock()
	if rs.started {
		rs.mu.Unlock()
		return fmt.Errorf("%w: replay already in progress", ErrUnavailable)
	}
	points := make([]RoutePoint, len(rs.points))
	copy(points, rs.points)
	rs.started = true
	rs.stopChan = make(chan struct{})
	rs.doneChan = make(chan struct{})
	rs.mu.Unlock()

	rs.logger.Info("Replay source started",
		zap.Int("points", len(points)),
		zap.Duration("interval", rs.interval),
		zap.Bool("high_accuracy", rs.opts.HighAccuracy),
	)

	rs.wg.Add(1)
	go rs.emitLoop(points, onFix)
	return nil
}

func (rs *ReplaySource) emitLoop(points []RoutePoint, onFix func(Fix)) {
	defer rs.wg.Done()
	defer close(rs.doneChan)

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for _, pt := range points {
		select {
		case <-ticker.C:
			onFix(Fix{
				Latitude:  pt.Latitude,
				Longitude: pt.Longitude,
				Timestamp: time.Now().UnixMilli(),
				Accuracy:  pt.Accuracy,
				Speed:     pt.Speed,
			})
		case <-rs.stopChan:
			return
		}
	}

	rs.logger.Info("Route replay completed")
}

// Stop cancels fix delivery. Safe to call multiple times.
func (rs *ReplaySource) Stop() {
	rs.mu.Lock()
	if !rs.started {
		rs.mu.Unlock()
		return
	}
	select {
	case <-rs.stopChan:
		// Already stopping
	default:
		close(rs.stopChan)
	}
	rs.started = false
	rs.mu.Unlock()

	rs.wg.Wait()
}

// Done is closed when the current replay has emitted its last point or was
// stopped. Valid after Start.
func (rs *ReplaySource) Done() <-chan struct{} {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.doneChan
}

// Close releases the route watcher. The source cannot Start again afterwards.
func (rs *ReplaySource) Close() {
	rs.Stop()
	if rs.watcher != nil {
		rs.watcher.Close()
	}
}
