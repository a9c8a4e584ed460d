package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/zeusync/bricksmash/internal/core/observability/log"
	"github.com/zeusync/bricksmash/internal/engine"
)

type SessionState uint8

const (
	SessionIdle SessionState = iota
	SessionRunning
	SessionPaused
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionRunning:
		return "running"
	case SessionPaused:
		return "paused"
	case SessionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s SessionState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Session tracks whether the tracking engine is running and whether player
// input may reach the scene. It owns no scene state.
type Session struct {
	eng    engine.Engine
	cfg    SessionConfig
	logger log.Log

	id          string
	state       SessionState
	interrupted bool
	lastErr     error
}

func NewSession(eng engine.Engine, cfg SessionConfig, logger log.Log) *Session {
	return &Session{
		eng:    eng,
		cfg:    cfg,
		logger: logger.With(log.String("component", "session")),
	}
}

// Start runs the tracking engine. A failed or paused session can be started
// again; each start gets a fresh id.
func (s *Session) Start(ctx context.Context) error {
	if s.state == SessionRunning {
		return nil
	}
	if err := s.eng.StartSession(ctx, engine.SessionConfig{PlaneDetection: s.cfg.PlaneDetection}); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	s.id = uuid.NewString()
	s.state = SessionRunning
	s.interrupted = false
	s.lastErr = nil
	s.logger.Info("session started", log.String("session", s.id))
	return nil
}

// Stop pauses the tracking engine.
func (s *Session) Stop() error {
	if s.state != SessionRunning && s.state != SessionFailed {
		return nil
	}
	s.state = SessionPaused
	if err := s.eng.PauseSession(); err != nil {
		return fmt.Errorf("pause session: %w", err)
	}
	s.logger.Info("session paused", log.String("session", s.id))
	return nil
}

// Fail halts gameplay input until the next Start. A session that is not
// tracking stays as it is.
func (s *Session) Fail(err error) {
	if !s.Tracking() {
		return
	}
	s.state = SessionFailed
	s.lastErr = err
	s.logger.Error("tracking failed", log.String("session", s.id), log.Error(err))
}

func (s *Session) Interrupt() {
	s.interrupted = true
	s.logger.Warn("tracking interrupted", log.String("session", s.id))
}

func (s *Session) EndInterruption() {
	s.interrupted = false
	s.logger.Info("tracking resumed", log.String("session", s.id))
}

// AcceptsInput reports whether taps may place or fire.
func (s *Session) AcceptsInput() bool {
	return s.state == SessionRunning && !s.interrupted
}

// InputError explains why AcceptsInput is false.
func (s *Session) InputError() error {
	switch {
	case s.state == SessionFailed && s.lastErr != nil:
		return fmt.Errorf("%w: %w", ErrSessionFailed, s.lastErr)
	case s.state == SessionFailed:
		return ErrSessionFailed
	case s.state != SessionRunning:
		return ErrSessionStopped
	case s.interrupted:
		return ErrInputSuppressed
	default:
		return nil
	}
}

// Tracking reports whether engine callbacks should still be applied.
func (s *Session) Tracking() bool {
	return s.state == SessionRunning || s.state == SessionFailed
}

func (s *Session) ID() string          { return s.id }
func (s *Session) State() SessionState { return s.state }
func (s *Session) Interrupted() bool   { return s.interrupted }
func (s *Session) LastError() error    { return s.lastErr }
