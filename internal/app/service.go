package app

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/djmonitor/internal/adapter/metrics"
	"github.com/pscheid92/djmonitor/internal/domain"
	apperrors "github.com/pscheid92/djmonitor/internal/platform/errors"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
	// Browsers may add seconds to <input type="time">.
	timeWithSecondsLayout = "15:04:05"
)

const (
	cmdSetPublication   = "set_publication"
	cmdClearPublication = "clear_publication"
	cmdSetEndTime       = "set_end_time"
	cmdTriggerBlink     = "trigger_blink"
)

// Service applies operator commands to the publication store and notifies displays.
type Service struct {
	store       domain.PublicationStore
	broadcaster domain.Broadcaster
	mirrorTo    domain.StateMirror
	mirror      *mirrorWorker
	metrics     *metrics.CommandMetrics
	clock       clockwork.Clock
	location    *time.Location

	mu sync.Mutex // one command at a time, broadcast order == commit order
}

// Option configures optional collaborators.
type Option func(*Service)

// WithMirror copies every committed record to m in the background.
// Close must be called to flush the last write.
func WithMirror(m domain.StateMirror) Option {
	return func(s *Service) { s.mirrorTo = m }
}

// WithMetrics records command outcomes on m.
func WithMetrics(m *metrics.CommandMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates the command processor. location is used to interpret
// operator-entered dates and to split the end time for display.
func NewService(store domain.PublicationStore, broadcaster domain.Broadcaster, clock clockwork.Clock, location *time.Location, opts ...Option) *Service {
	if location == nil {
		location = time.Local
	}
	s := &Service{
		store:       store,
		broadcaster: broadcaster,
		clock:       clock,
		location:    location,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mirrorTo != nil {
		s.mirror = newMirrorWorker(s.mirrorTo, s.metrics)
	}
	return s
}

// Close flushes the pending mirror write and stops the mirror worker.
func (s *Service) Close() {
	if s.mirror != nil {
		s.mirror.close()
	}
}

// GetState returns the committed record for initial page render.
func (s *Service) GetState(_ context.Context) State {
	p := s.store.Get()
	state := State{Publication: p}
	if p.HasCountdown() {
		end := p.EndTime(s.location)
		state.EndDate = end.Format(dateLayout)
		state.EndTime = end.Format(timeLayout)
	}
	return state
}

// SetPublication updates the supplied fields and broadcasts the full state.
func (s *Service) SetPublication(ctx context.Context, req SetPublicationRequest) (domain.Publication, error) {
	if req.empty() {
		s.count(cmdSetPublication, metrics.StatusInvalid)
		return domain.Publication{}, apperrors.ValidationError("at least one of text, color or blink_mode is required")
	}

	return s.commit(ctx, cmdSetPublication, func(p *domain.Publication) error {
		if req.Text != nil {
			p.Text = *req.Text
		}
		if req.Color != nil {
			p.Color = *req.Color
		}
		if req.BlinkMode != nil {
			p.BlinkMode = *req.BlinkMode
		}
		return nil
	}, s.broadcaster.BroadcastState)
}

// ClearPublication empties the text, applies the optional fields and broadcasts the full state.
func (s *Service) ClearPublication(ctx context.Context, req ClearPublicationRequest) (domain.Publication, error) {
	return s.commit(ctx, cmdClearPublication, func(p *domain.Publication) error {
		p.Text = ""
		if req.Color != nil {
			p.Color = *req.Color
		}
		if req.BlinkMode != nil {
			p.BlinkMode = *req.BlinkMode
		}
		return nil
	}, s.broadcaster.BroadcastState)
}

// SetEndTime stores the countdown end and warning threshold and broadcasts the full state.
func (s *Service) SetEndTime(ctx context.Context, req SetEndTimeRequest) (domain.Publication, error) {
	end, warning, err := s.parseEndTime(req)
	if err != nil {
		s.count(cmdSetEndTime, metrics.StatusInvalid)
		return domain.Publication{}, err
	}

	return s.commit(ctx, cmdSetEndTime, func(p *domain.Publication) error {
		p.EndTimestamp = domain.Int64Ptr(end.Unix())
		p.WarningMinutes = domain.IntPtr(warning)
		return nil
	}, s.broadcaster.BroadcastState)
}

// TriggerBlink stores color and sends a one-shot blink pulse instead of the full state.
func (s *Service) TriggerBlink(ctx context.Context, color string) error {
	if strings.TrimSpace(color) == "" {
		s.count(cmdTriggerBlink, metrics.StatusInvalid)
		return apperrors.ValidationError("color is required")
	}

	_, err := s.commit(ctx, cmdTriggerBlink, func(p *domain.Publication) error {
		p.Color = color
		return nil
	}, func() { s.broadcaster.BroadcastBlink(color) })
	return err
}

func (s *Service) parseEndTime(req SetEndTimeRequest) (time.Time, int, error) {
	date := strings.TrimSpace(req.Date)
	clock := strings.TrimSpace(req.Time)
	minutes := strings.TrimSpace(req.WarningMinutes)

	var missing []string
	if date == "" {
		missing = append(missing, "date")
	}
	if clock == "" {
		missing = append(missing, "time")
	}
	if minutes == "" {
		missing = append(missing, "warning_minutes")
	}
	if len(missing) > 0 {
		return time.Time{}, 0, apperrors.ValidationError("all fields must be set").
			WithField("missing", strings.Join(missing, ","))
	}

	layout := timeLayout
	if strings.Count(clock, ":") == 2 {
		layout = timeWithSecondsLayout
	}
	end, parseErr := time.ParseInLocation(dateLayout+" "+layout, date+" "+clock, s.location)
	if parseErr != nil {
		return time.Time{}, 0, apperrors.ValidationErrorf(parseErr, "invalid date or time: %v", parseErr).
			WithField("date", date).
			WithField("time", clock)
	}

	warning, err := strconv.Atoi(minutes)
	if err != nil {
		return time.Time{}, 0, apperrors.ValidationErrorf(err, "warning_minutes must be an integer: %v", err).
			WithField("warning_minutes", minutes)
	}
	if warning < 0 {
		return time.Time{}, 0, apperrors.ValidationError("warning_minutes must not be negative").
			WithField("warning_minutes", warning)
	}

	return end, warning, nil
}

// commit runs mutate through the store and, only if the record was persisted,
// calls notify and queues the result for the mirror. The lock spans the whole
// sequence; the mirror write itself happens on the worker.
func (s *Service) commit(ctx context.Context, command string, mutate func(*domain.Publication) error, notify func()) (domain.Publication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.clock.Now()
	committed, err := s.store.Update(mutate)
	if s.metrics != nil {
		s.metrics.PersistDuration.Observe(s.clock.Since(start).Seconds())
	}

	if err != nil {
		if errors.Is(err, domain.ErrInvalidValue) || errors.Is(err, domain.ErrUnknownField) {
			s.count(command, metrics.StatusInvalid)
			return domain.Publication{}, apperrors.ValidationErrorf(err, "%v", err)
		}
		s.count(command, metrics.StatusPersistErr)
		slog.ErrorContext(ctx, "Failed to persist publication", "command", command, "error", err)
		return domain.Publication{}, apperrors.InternalError("failed to save publication", err).WithField("command", command)
	}

	notify()
	if s.mirror != nil {
		s.mirror.enqueue(ctx, committed)
	}
	s.count(command, metrics.StatusOK)

	slog.InfoContext(ctx, "Publication updated",
		"command", command,
		"text", committed.Text,
		"color", committed.Color,
		"blink_mode", committed.BlinkMode,
	)
	return committed, nil
}

func (s *Service) count(command, status string) {
	if s.metrics != nil {
		s.metrics.CommandsTotal.WithLabelValues(command, status).Inc()
	}
}
