package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/isimg/moyenne/internal/catalog"
)

// ServiceConfig holds dependencies for the session service.
type ServiceConfig struct {
	Catalog *catalog.Catalog
	Store   Store // defaults to a MemoryStore
}

// Service loads a session, applies one edit and saves it back. Edits are
// serialized, so there is a single mutator at a time.
type Service struct {
	catalog *catalog.Catalog
	store   Store
	mu      sync.Mutex
}

// NewService creates a session service.
func NewService(cfg ServiceConfig) *Service {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	return &Service{
		catalog: cfg.Catalog,
		store:   store,
	}
}

// Catalog returns the catalog sessions select from.
func (svc *Service) Catalog() *catalog.Catalog {
	return svc.catalog
}

// Create starts a new empty session.
func (svc *Service) Create(ctx context.Context) (*Session, error) {
	s := New()
	if err := svc.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	slog.Info("session created", "session_id", s.ID)
	return s, nil
}

// Get returns a session by id.
func (svc *Service) Get(ctx context.Context, id string) (*Session, error) {
	return svc.store.Get(ctx, id)
}

// Delete discards a session.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("session deleted", "session_id", id)
	return nil
}

// Select changes the program, year or semester of a session.
func (svc *Service) Select(ctx context.Context, id string, level Level, value string) (*Session, error) {
	s, _, err := svc.update(ctx, id, func(s *Session) (bool, error) {
		if err := s.Select(svc.catalog, level, value); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("selection changed",
		"session_id", id,
		"program", s.Program,
		"year", s.Year,
		"semester", s.Semester,
		"subjects", len(s.Subjects),
	)
	return s, nil
}

// Reset clears the selection, subjects and marks.
func (svc *Service) Reset(ctx context.Context, id string) (*Session, error) {
	s, _, err := svc.update(ctx, id, func(s *Session) (bool, error) {
		s.Reset()
		return true, nil
	})
	return s, err
}

// ClearMarks discards every typed score.
func (svc *Service) ClearMarks(ctx context.Context, id string) (*Session, error) {
	s, _, err := svc.update(ctx, id, func(s *Session) (bool, error) {
		s.ClearMarks()
		return true, nil
	})
	return s, err
}

// SetMark validates and stores one score entry. The bool reports whether the
// value was accepted; a rejected value leaves the session unchanged.
func (svc *Service) SetMark(ctx context.Context, id, subjectID, label, raw string) (*Session, bool, error) {
	return svc.update(ctx, id, func(s *Session) (bool, error) {
		return s.SetMark(subjectID, label, raw), nil
	})
}

// SetCoefficient changes a subject coefficient.
func (svc *Service) SetCoefficient(ctx context.Context, id, subjectID, raw string) (*Session, bool, error) {
	return svc.update(ctx, id, func(s *Session) (bool, error) {
		return s.SetCoefficient(subjectID, raw), nil
	})
}

// AddInput adds an input label to a subject.
func (svc *Service) AddInput(ctx context.Context, id, subjectID, label string) (*Session, bool, error) {
	return svc.update(ctx, id, func(s *Session) (bool, error) {
		return s.AddInput(subjectID, label), nil
	})
}

// RemoveInput removes an input label from a subject.
func (svc *Service) RemoveInput(ctx context.Context, id, subjectID, label string) (*Session, bool, error) {
	return svc.update(ctx, id, func(s *Session) (bool, error) {
		return s.RemoveInput(subjectID, label), nil
	})
}

// update runs fn on the stored session and saves it only when fn reports a
// change.
func (svc *Service) update(ctx context.Context, id string, fn func(*Session) (bool, error)) (*Session, bool, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	s, err := svc.store.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	changed, err := fn(s)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return s, false, nil
	}

	if err := svc.store.Save(ctx, s); err != nil {
		return nil, false, fmt.Errorf("saving session: %w", err)
	}
	return s, true, nil
}
