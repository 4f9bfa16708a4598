package configstore

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pscheid92/djmonitor/internal/domain"
)

// Persister reads and writes the full record to durable storage.
// Load reports found=false when nothing has been persisted yet.
type Persister interface {
	Load() (p domain.Publication, found bool, err error)
	Save(p domain.Publication) error
}

// Store holds the committed record.
type Store struct {
	persister Persister

	writeMu sync.Mutex // serializes read-modify-persist

	mu      sync.RWMutex
	current domain.Publication
}

var _ domain.PublicationStore = (*Store)(nil)

// Open loads the record through persister. A missing record yields the
// default; a corrupt one is returned as an error wrapping domain.ErrCorruptState.
func Open(persister Persister) (*Store, error) {
	p, found, err := persister.Load()
	if err != nil {
		return nil, err
	}
	if !found {
		slog.Info("No persisted publication found, starting with defaults")
		p = domain.Publication{}
	}
	if err := validate(p); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorruptState, err)
	}
	return &Store{persister: persister, current: p.Clone()}, nil
}

// Get returns a copy of the committed record.
func (s *Store) Get() domain.Publication {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update applies fn to a copy of the record, persists the result and commits it.
// If fn or the save fails, the committed record is left untouched.
func (s *Store) Update(fn func(*domain.Publication) error) (domain.Publication, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.Get()
	if err := fn(&next); err != nil {
		return domain.Publication{}, err
	}
	if err := validate(next); err != nil {
		return domain.Publication{}, err
	}

	if err := s.persister.Save(next); err != nil {
		return domain.Publication{}, fmt.Errorf("%w: %w", domain.ErrPersist, err)
	}

	s.mu.Lock()
	s.current = next.Clone()
	s.mu.Unlock()

	return next, nil
}

// SetField sets a single field by name and persists the record.
func (s *Store) SetField(field domain.Field, value any) error {
	if !field.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	_, err := s.Update(func(p *domain.Publication) error {
		return assign(p, field, value)
	})
	return err
}

// ClearText empties the announcement text.
func (s *Store) ClearText() error {
	return s.SetField(domain.FieldText, "")
}

func assign(p *domain.Publication, field domain.Field, value any) error {
	invalid := func() error {
		return fmt.Errorf("%w: %s=%v (%T)", domain.ErrInvalidValue, field, value, value)
	}

	switch field {
	case domain.FieldText:
		v, ok := value.(string)
		if !ok {
			return invalid()
		}
		p.Text = v
	case domain.FieldColor:
		v, ok := value.(string)
		if !ok {
			return invalid()
		}
		p.Color = v
	case domain.FieldBlinkMode:
		v, ok := value.(bool)
		if !ok {
			return invalid()
		}
		p.BlinkMode = v
	case domain.FieldEndTimestamp:
		switch v := value.(type) {
		case nil:
			p.EndTimestamp = nil
		case int64:
			p.EndTimestamp = domain.Int64Ptr(v)
		case int:
			p.EndTimestamp = domain.Int64Ptr(int64(v))
		case *int64:
			if v == nil {
				p.EndTimestamp = nil
			} else {
				p.EndTimestamp = domain.Int64Ptr(*v)
			}
		default:
			return invalid()
		}
	case domain.FieldWarningMinutes:
		switch v := value.(type) {
		case nil:
			p.WarningMinutes = nil
		case int:
			if v < 0 {
				return invalid()
			}
			p.WarningMinutes = domain.IntPtr(v)
		case *int:
			if v == nil {
				p.WarningMinutes = nil
			} else if *v < 0 {
				return invalid()
			} else {
				p.WarningMinutes = domain.IntPtr(*v)
			}
		default:
			return invalid()
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
	return nil
}

func validate(p domain.Publication) error {
	if p.WarningMinutes != nil && *p.WarningMinutes < 0 {
		return fmt.Errorf("%w: warning_minutes must not be negative, got %d", domain.ErrInvalidValue, *p.WarningMinutes)
	}
	return nil
}

// IsPersistError reports whether err came from a failed save.
func IsPersistError(err error) bool {
	return errors.Is(err, domain.ErrPersist)
}
