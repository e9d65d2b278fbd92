// Package app wires configuration, logging, focus tracking, clipboard
// guarding, and the strategy manager into the daemon and one-shot
// command surfaces.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"scrivo/internal/config"
	"scrivo/internal/fsm"
	"scrivo/internal/inject"
	"scrivo/internal/ipc"
	"scrivo/internal/telemetry"
)

const (
	probeTimeout   = 180 * time.Millisecond
	forwardTimeout = 2 * time.Second
	acquireRetries = 8
)

// Service owns a built injection stack and serves it over the IPC socket.
type Service struct {
	cfg     config.Loaded
	logger  *slog.Logger
	manager *inject.Manager

	mu      sync.Mutex
	state   fsm.State
	closers []func() error
}

// New builds the full platform stack for the loaded configuration.
func New(ctx context.Context, cfg config.Loaded, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	built, err := buildPlatform(ctx, cfg.Config, logger)
	if err != nil {
		return nil, err
	}

	opts := optionsFromConfig(cfg.Config)
	manager := inject.NewManager(opts, built.registry, built.provider, built.guardian, telemetry.LogSink{Logger: logger}, logger)

	return &Service{
		cfg:     cfg,
		logger:  logger,
		manager: manager,
		state:   fsm.StateIdle,
		closers: built.closers,
	}, nil
}

// Manager exposes the strategy manager for one-shot use.
func (s *Service) Manager() *inject.Manager { return s.manager }

// Close releases platform resources (bus connections, file handles).
func (s *Service) Close() error {
	var first error
	for _, closer := range s.closers {
		if err := closer(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Serve acquires the runtime socket and answers IPC commands until ctx
// is cancelled. Injector pre-warm runs before the first client is served.
func (s *Service) Serve(ctx context.Context) error {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return err
	}

	listener, err := ipc.Acquire(ctx, socketPath, probeTimeout, acquireRetries, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	s.manager.Prewarm(ctx)
	s.logger.Info("daemon ready", "socket", socketPath)

	return ipc.Serve(ctx, listener, s, s.logger)
}

// Handle dispatches one IPC request. It implements ipc.Handler.
func (s *Service) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch strings.ToLower(strings.TrimSpace(req.Command)) {
	case "inject":
		return s.handleInject(ctx, req.Text)
	case "status":
		return ipc.Response{OK: true, State: string(s.currentState()), Message: s.statusMessage()}
	case "pause":
		s.manager.Pause()
		s.transition(fsm.EventPause)
		return ipc.Response{OK: true, State: string(fsm.StatePaused), Message: "injection paused"}
	case "resume":
		s.manager.Resume()
		s.transition(fsm.EventResume)
		return ipc.Response{OK: true, State: string(fsm.StateIdle), Message: "injection resumed"}
	default:
		return ipc.Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
	}
}

func (s *Service) handleInject(ctx context.Context, text string) ipc.Response {
	s.transition(fsm.EventBegin)

	method, err := s.manager.Inject(ctx, text)
	if err == nil {
		s.transition(fsm.EventFinish)
		return ipc.Response{OK: true, State: string(s.currentState()), Method: method.String()}
	}

	var ierr *inject.Error
	if errors.As(err, &ierr) {
		// Paused and policy rejections are expected outcomes, not
		// daemon-level errors.
		switch ierr.Kind {
		case inject.KindPaused, inject.KindDenylisted, inject.KindNoEditableFocus:
			s.transition(fsm.EventFinish)
		default:
			s.transition(fsm.EventFail)
			s.transition(fsm.EventReset)
		}
		return ipc.Response{OK: false, App: ierr.App, Error: ierr.Error()}
	}

	s.transition(fsm.EventFail)
	s.transition(fsm.EventReset)
	return ipc.Response{OK: false, Error: err.Error()}
}

func (s *Service) currentState() fsm.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.manager.Paused() {
		return fsm.StatePaused
	}
	return s.state
}

func (s *Service) transition(event fsm.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fsm.Transition(s.state, event)
	if err != nil {
		s.logger.Debug("state transition rejected", "state", string(s.state), "event", string(event))
		return
	}
	s.state = next
}

func (s *Service) statusMessage() string {
	successes, cooldowns := s.manager.Cache().Len()
	return fmt.Sprintf("tracked pairs: %d, cooldowns: %d", successes, cooldowns)
}

// InjectOnce runs a single injection without a daemon: build, prewarm
// is skipped, inject, tear down.
func InjectOnce(ctx context.Context, cfg config.Loaded, logger *slog.Logger, text string) error {
	svc, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	_, err = svc.manager.Inject(ctx, text)
	return err
}

// optionsFromConfig maps the millisecond-based file schema onto manager
// options.
func optionsFromConfig(cfg config.Config) inject.Options {
	inj := cfg.Injection
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return inject.Options{
		FocusTimeout:         ms(inj.FocusTimeoutMS),
		AttemptTimeout:       ms(inj.AttemptTimeoutMS),
		ConfirmTimeout:       ms(inj.ConfirmTimeoutMS),
		TotalBudget:          ms(inj.TotalBudgetMS),
		RestoreDelay:         ms(inj.RestoreDelayMS),
		RestoreTimeout:       ms(inj.RestoreTimeoutMS),
		InjectOnUnknownFocus: inj.InjectOnUnknownFocus,
		Allowlist:            inj.Allowlist,
		Denylist:             inj.Denylist,
		Redact:               inj.RedactLogs,
		Mode:                 inject.Mode(strings.ToLower(inj.Mode)),
		SweepInterval:        ms(inj.SweepIntervalMS),
		Cache: inject.CacheOptions{
			CooldownInitial:  ms(inj.CooldownInitialMS),
			BackoffFactor:    inj.CooldownBackoffFactor,
			CooldownMax:      ms(inj.CooldownMaxMS),
			FailureThreshold: uint32(inj.FailureThreshold),
			FailureGrace:     ms(inj.FailureGraceMS),
			TTL:              ms(inj.CacheTTLMS),
		},
	}
}

// Forward sends a command to a running daemon. The second return value
// reports whether a daemon answered at all.
func Forward(ctx context.Context, command string, text string) (ipc.Response, bool, error) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return ipc.Response{}, false, err
	}

	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command, Text: text}, forwardTimeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) || isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}
	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
