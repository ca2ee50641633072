package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/javiserrasc-tech/Corricion/internal/models"

	"go.uber.org/zap"
)

// ErrMalformedImport is returned when an imported payload is not a
// well-formed sequence of session records. Existing history is left untouched.
var ErrMalformedImport = errors.New("malformed history import")

// Persistence is the byte-level storage boundary for history. The store does
// not interpret the storage medium. Load returns nil data when nothing has
// been persisted yet.
type Persistence interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// Store keeps the bounded, most-recent-first log of finalized sessions.
// The cap is enforced here, not in the persistence layer.
type Store struct {
	persistence Persistence
	limit       int
	logger      *zap.Logger

	mu       sync.RWMutex
	sessions []models.RunSession
}

// NewStore creates a history store retaining at most limit sessions
func NewStore(persistence Persistence, limit int, logger *zap.Logger) *Store {
	return &Store{
		persistence: persistence,
		limit:       limit,
		logger:      logger,
	}
}

// Load restores history from the persistence collaborator
func (s *Store) Load() error {
	data, err := s.persistence.Load()
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var sessions []models.RunSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		return fmt.Errorf("failed to decode stored history: %w", err)
	}

	s.mu.Lock()
	s.sessions = truncate(sessions, s.limit)
	count := len(s.sessions)
	s.mu.Unlock()

	s.logger.Info("History loaded", zap.Int("sessions", count))
	return nil
}

// Record appends a finalized session to the front of the history, evicts
// beyond the cap and persists the result.
func (s *Store) Record(session models.RunSession) error {
	if session.Status != models.StatusCompleted {
		return fmt.Errorf("cannot record session %s with status %s", session.ID, session.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = truncate(append([]models.RunSession{session}, s.sessions...), s.limit)

	if err := s.save(); err != nil {
		return err
	}

	s.logger.Info("Session recorded",
		zap.String("session_id", session.ID),
		zap.Float64("distance_km", session.DistanceKm),
		zap.Int("history_size", len(s.sessions)),
	)
	return nil
}

// Annotate attaches AI commentary to an already-recorded session. Unknown
// session IDs are ignored; the session may have been evicted in the meantime.
func (s *Store) Annotate(sessionID, insight string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			s.sessions[i].AIInsight = &insight
			return s.save()
		}
	}

	s.logger.Debug("Annotation skipped, session no longer in history",
		zap.String("session_id", sessionID),
	)
	return nil
}

// Sessions returns the history, newest first
func (s *Store) Sessions() []models.RunSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.RunSession, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Len returns the number of retained sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stats aggregates totals over the retained history
func (s *Store) Stats() models.DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.DashboardStats{TotalRuns: len(s.sessions)}
	var paceSum float64
	for _, session := range s.sessions {
		stats.TotalDistance += session.DistanceKm
		paceSum += session.AveragePace
	}
	if stats.TotalRuns > 0 {
		stats.AveragePace = paceSum / float64(stats.TotalRuns)
	}
	return stats
}

// Export returns the serialized session collection
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.Marshal(s.sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}
	return data, nil
}

// Import replaces the entire history wholesale after validating that the
// payload is a well-formed ordered sequence of session records. Malformed
// input is rejected without mutating existing history.
func (s *Store) Import(data []byte) error {
	var sessions []models.RunSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	for i, session := range sessions {
		if err := validateRecord(session); err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrMalformedImport, i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.sessions
	s.sessions = truncate(sessions, s.limit)
	if err := s.save(); err != nil {
		s.sessions = previous
		return err
	}

	s.logger.Info("History imported", zap.Int("sessions", len(s.sessions)))
	return nil
}

func validateRecord(session models.RunSession) error {
	if session.ID == "" {
		return errors.New("missing id")
	}
	if session.Status != models.StatusCompleted {
		return fmt.Errorf("status %q is not a finalized session", session.Status)
	}
	if session.DistanceKm < 0 {
		return errors.New("negative distance")
	}
	for i := 1; i < len(session.Path); i++ {
		if session.Path[i].Timestamp < session.Path[i-1].Timestamp {
			return fmt.Errorf("path timestamps out of order at index %d", i)
		}
	}
	return nil
}

// save persists the current collection; callers hold the lock
func (s *Store) save() error {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := s.persistence.Save(data); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

func truncate(sessions []models.RunSession, limit int) []models.RunSession {
	if len(sessions) > limit {
		return sessions[:limit]
	}
	return sessions
}
