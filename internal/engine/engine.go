package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/javiserrasc-tech/Corricion/internal/config"
	"github.com/javiserrasc-tech/Corricion/internal/geo"
	"github.com/javiserrasc-tech/Corricion/internal/history"
	"github.com/javiserrasc-tech/Corricion/internal/insight"
	"github.com/javiserrasc-tech/Corricion/internal/location"
	"github.com/javiserrasc-tech/Corricion/internal/models"
	"github.com/javiserrasc-tech/Corricion/internal/timer"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidState is returned when a lifecycle call does not apply to the
// current status, e.g. Pause while no run is active. The engine rejects such
// calls rather than silently coercing state.
var ErrInvalidState = errors.New("invalid engine state")

// Clock supplies the current time. The engine never reads the wall clock
// directly so tests can drive time explicitly.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// InsightGenerator produces AI commentary for a completed session. It may
// fail or time out; the engine substitutes a fixed fallback and proceeds.
type InsightGenerator interface {
	Generate(session models.RunSession) (string, error)
}

// Snapshot is the per-tick display state of the current session
type Snapshot struct {
	Status          models.RunStatus
	DistanceKm      float64
	ElapsedMs       int64
	CurrentSpeedKmh float64
	CurrentPace     float64 // minutes per km over active duration so far
	LastAccuracy    float64
	PathPoints      int
}

// Engine is the session state machine. It owns the current session's path,
// distance, duration and status, drives the filter, accumulator and
// stopwatch, and finalizes sessions into the history store.
//
// Fixes and timer ticks are funneled through one mutex, so a fix arriving
// mid-transition sees either the pre- or post-transition status, never a
// torn state.
type Engine struct {
	cfg      config.TrackingConfig
	source   location.Source
	store    *history.Store
	insights InsightGenerator
	clock    Clock
	logger   *zap.Logger

	onUpdate func(Snapshot)

	mu             sync.Mutex
	status         models.RunStatus
	current        *models.RunSession
	stopwatch      *timer.Stopwatch
	filter         *geo.Filter
	accumulator    *geo.Accumulator
	lastAcceptedMs int64
	currentSpeed   float64
	lastAccuracy   float64

	tickStop  chan struct{}
	wg        sync.WaitGroup
	insightWg sync.WaitGroup
}

// NewEngine creates an engine in the IDLE state. insights may be nil to
// disable commentary; clock may be nil to use the wall clock.
func NewEngine(
	cfg config.TrackingConfig,
	source location.Source,
	store *history.Store,
	insights InsightGenerator,
	clock Clock,
	logger *zap.Logger,
) *Engine {
	if clock == nil {
		clock = realClock{}
	}
	return &Engine{
		cfg:       cfg,
		source:    source,
		store:     store,
		insights:  insights,
		clock:     clock,
		logger:    logger,
		status:    models.StatusIdle,
		stopwatch: timer.NewStopwatch(),
		filter: geo.NewFilter(
			cfg.MaxAccuracyMeters,
			cfg.StaleAccuracyMeters,
			time.Duration(cfg.StaleGapSeconds)*time.Second,
		),
		accumulator: geo.NewAccumulator(cfg.JitterMeters),
	}
}

// OnUpdate registers the display callback invoked once per tick interval
// while a session exists. Must be set before Begin.
func (e *Engine) OnUpdate(fn func(Snapshot)) {
	e.onUpdate = fn
}

// Begin allocates a fresh session and starts tracking. Valid from IDLE and
// COMPLETED. A source that cannot deliver fixes fails the action and no
// session is created.
func (e *Engine) Begin() error {
	e.mu.Lock()
	if e.status == models.StatusRunning || e.status == models.StatusPaused {
		status := e.status
		e.mu.Unlock()
		return fmt.Errorf("%w: begin while %s", ErrInvalidState, status)
	}

	if err := e.source.Start(e.handleFix); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("cannot begin run: %w", err)
	}

	now := e.clock.Now()
	e.current = &models.RunSession{
		ID:        uuid.New().String(),
		StartTime: now.UnixMilli(),
		Path:      []models.GeoPoint{},
		Status:    models.StatusRunning,
	}
	e.status = models.StatusRunning
	e.stopwatch.Reset()
	e.stopwatch.Start(now)
	e.accumulator.Reset()
	e.lastAcceptedMs = 0
	e.currentSpeed = 0
	e.lastAccuracy = 0

	e.tickStop = make(chan struct{})
	e.wg.Add(1)
	go e.tickLoop(e.tickStop)

	sessionID := e.current.ID
	e.mu.Unlock()

	e.logger.Info("Run started", zap.String("session_id", sessionID))
	return nil
}

// Pause suspends accumulation. The fix source keeps running so signal
// quality stays visible, but accepted fixes no longer extend the path or the
// distance.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != models.StatusRunning {
		return fmt.Errorf("%w: pause while %s", ErrInvalidState, e.status)
	}

	e.stopwatch.Pause(e.clock.Now())
	e.status = models.StatusPaused
	e.current.Status = models.StatusPaused

	e.logger.Info("Run paused", zap.String("session_id", e.current.ID))
	return nil
}

// Resume reopens the active segment without resetting accumulated duration
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != models.StatusPaused {
		return fmt.Errorf("%w: resume while %s", ErrInvalidState, e.status)
	}

	e.stopwatch.Start(e.clock.Now())
	e.status = models.StatusRunning
	e.current.Status = models.StatusRunning

	e.logger.Info("Run resumed", zap.String("session_id", e.current.ID))
	return nil
}

// Stop finalizes the current session, records it into history and kicks off
// commentary generation in the background. Repeated calls after the first
// are no-ops.
func (e *Engine) Stop() error {
	e.mu.Lock()
	switch e.status {
	case models.StatusCompleted:
		e.mu.Unlock()
		return nil
	case models.StatusIdle:
		e.mu.Unlock()
		return fmt.Errorf("%w: stop without an active session", ErrInvalidState)
	}

	now := e.clock.Now()
	total := e.stopwatch.Finalize(now)
	end := now.UnixMilli()

	e.current.EndTime = &end
	e.current.AveragePace = averagePace(total, e.current.DistanceKm)
	e.current.Status = models.StatusCompleted
	e.status = models.StatusCompleted

	finished := *e.current
	tickStop := e.tickStop
	e.tickStop = nil
	e.mu.Unlock()

	if tickStop != nil {
		close(tickStop)
	}
	e.source.Stop()
	e.wg.Wait()

	e.logger.Info("Run completed",
		zap.String("session_id", finished.ID),
		zap.Float64("distance_km", finished.DistanceKm),
		zap.Duration("active_duration", total),
		zap.String("pace", models.FormatPace(finished.AveragePace)),
	)

	if err := e.store.Record(finished); err != nil {
		e.logger.Error("Failed to record session", zap.Error(err))
	}

	// Commentary annotates the record after the fact; it must never delay
	// finalization or the history write.
	if e.insights != nil {
		e.insightWg.Add(1)
		go e.annotate(finished)
	}

	return nil
}

// Drain blocks until background commentary work has finished. Intended for
// shutdown paths; it never blocks the Stop transition itself.
func (e *Engine) Drain() {
	e.insightWg.Wait()
}

// Reset discards the completed session reference and returns to a clean
// slate. The session itself stays in history.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != models.StatusCompleted {
		return fmt.Errorf("%w: reset while %s", ErrInvalidState, e.status)
	}

	e.current = nil
	e.status = models.StatusIdle
	e.currentSpeed = 0
	e.lastAccuracy = 0

	e.logger.Info("Engine reset")
	return nil
}

// Status returns the current lifecycle status
func (e *Engine) Status() models.RunStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// CurrentSession returns a copy of the in-progress or just-completed
// session, or nil while IDLE.
func (e *Engine) CurrentSession() *models.RunSession {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return nil
	}
	session := *e.current
	session.Path = append([]models.GeoPoint(nil), e.current.Path...)
	return &session
}

// Snapshot returns the current display state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{Status: e.status}
	if e.current == nil {
		return snap
	}

	elapsed := e.stopwatch.Elapsed(e.clock.Now()).Milliseconds()
	snap.DistanceKm = e.current.DistanceKm
	snap.ElapsedMs = elapsed
	snap.CurrentSpeedKmh = e.currentSpeed
	snap.LastAccuracy = e.lastAccuracy
	snap.PathPoints = len(e.current.Path)
	if e.current.DistanceKm > 0 {
		snap.CurrentPace = (float64(elapsed) / 60000) / e.current.DistanceKm
	}
	return snap
}

// handleFix admits or drops one raw fix. Rejections are routine filtering,
// not errors; nothing is surfaced to the caller.
func (e *Engine) handleFix(fix location.Fix) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != models.StatusRunning {
		if e.status == models.StatusPaused {
			// Signal quality stays visible while paused
			e.lastAccuracy = fix.Accuracy
		}
		return
	}

	// Path is monotonic in timestamp
	if e.lastAcceptedMs > 0 && fix.Timestamp < e.lastAcceptedMs {
		e.logger.Debug("Fix dropped, out-of-order timestamp",
			zap.Int64("timestamp", fix.Timestamp),
		)
		return
	}

	var gap time.Duration
	if e.lastAcceptedMs > 0 {
		gap = time.Duration(fix.Timestamp-e.lastAcceptedMs) * time.Millisecond
	}

	if !e.filter.Accept(fix.Accuracy, gap) {
		e.logger.Debug("Fix rejected",
			zap.Float64("accuracy", fix.Accuracy),
			zap.Duration("gap", gap),
		)
		return
	}

	speed := fix.Speed
	if speed < 0 {
		speed = 0
	}
	point := models.GeoPoint{
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
		Timestamp: fix.Timestamp,
		Accuracy:  fix.Accuracy,
		Speed:     speed,
	}

	increment := e.accumulator.Advance(point)
	e.current.Path = append(e.current.Path, point)
	e.current.DistanceKm += increment
	e.currentSpeed = geo.SpeedKmh(fix.Speed)
	e.lastAccuracy = fix.Accuracy
	e.lastAcceptedMs = fix.Timestamp
}

func (e *Engine) tickLoop(stop chan struct{}) {
	defer e.wg.Done()

	ticker := time.NewTicker(time.Duration(e.cfg.TickIntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.mu.Lock()
			snap := e.snapshotLocked()
			e.mu.Unlock()
			if e.onUpdate != nil {
				e.onUpdate(snap)
			}
		case <-stop:
			return
		}
	}
}

func (e *Engine) annotate(session models.RunSession) {
	defer e.insightWg.Done()

	text, err := e.insights.Generate(session)
	if err != nil {
		e.logger.Warn("Insight generation failed, using fallback",
			zap.Error(err),
			zap.String("session_id", session.ID),
		)
		text = insight.Fallback
	}

	if err := e.store.Annotate(session.ID, text); err != nil {
		e.logger.Error("Failed to annotate session", zap.Error(err))
	}
}

// averagePace derives minutes per kilometer from the active duration. A run
// with zero distance reports zero pace rather than a non-finite value.
func averagePace(active time.Duration, distanceKm float64) float64 {
	if distanceKm <= 0 {
		return 0
	}
	pace := active.Minutes() / distanceKm
	if math.IsNaN(pace) || math.IsInf(pace, 0) {
		return 0
	}
	return pace
}
