// Package poller drives a certificate from "found but unanchored" to
// "anchored" the way the verification page does: it verifies once, triggers
// anchoring without waiting for it, and re-verifies on a fixed interval until
// the certificate is anchored, the wait is exhausted, or the caller goes away.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MK-codes365/greenwipe/internal/service"
	"go.uber.org/zap"
)

// State is the display state of a verification
type State int

const (
	Idle State = iota
	Verifying
	FoundAnchored
	FoundUnanchored
	AnchoringPending
	NotFound
	TimedOut
	Failed
)

var stateNames = map[State]string{
	Idle:             "idle",
	Verifying:        "verifying",
	FoundAnchored:    "found_anchored",
	FoundUnanchored:  "found_unanchored",
	AnchoringPending: "anchoring_pending",
	NotFound:         "not_found",
	TimedOut:         "timed_out",
	Failed:           "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition follows s
func (s State) Terminal() bool {
	switch s {
	case FoundAnchored, NotFound, TimedOut, Failed:
		return true
	}
	return false
}

// Messages shown with terminal transitions
const (
	MessageAnchorConfirmed = "Blockchain Anchor Confirmed. The certificate is now securely anchored."
	MessageTimedOut        = "Anchoring was not confirmed in time."
)

var (
	// ErrTimedOut is returned when the certificate was not anchored within MaxWait
	ErrTimedOut = errors.New("anchoring not confirmed in time")
	// ErrVerificationFailed wraps the verification error that ended a run
	ErrVerificationFailed = errors.New("verification failed")
)

// Backend is the server side the poller talks to
type Backend interface {
	// Verify returns found=false for unknown ids. err is reserved for faults.
	Verify(ctx context.Context, id string) (cert *service.CertificatePayload, found bool, err error)
	// Anchor asks the server to anchor id
	Anchor(ctx context.Context, id string) error
}

// Transition is reported to the Observer on every state change
type Transition struct {
	State       State
	Certificate *service.CertificatePayload
	Message     string
	Err         error
}

// Observer receives transitions. It is called from the goroutine running Run.
type Observer func(Transition)

// Config bounds a polling run
type Config struct {
	Interval             time.Duration
	MaxWait              time.Duration
	MaxConsecutiveErrors int
}

// DefaultConfig polls every 2s for up to 2 minutes and gives up after 3
// verification errors in a row
func DefaultConfig() Config {
	return Config{
		Interval:             2 * time.Second,
		MaxWait:              2 * time.Minute,
		MaxConsecutiveErrors: 3,
	}
}

// Outcome is the terminal state of a run
type Outcome struct {
	State       State
	Certificate *service.CertificatePayload
}

// Poller runs verifications against a Backend
type Poller struct {
	backend  Backend
	cfg      Config
	observer Observer
	logger   *zap.Logger
}

// New creates a poller. Zero config fields take their defaults and a nil
// observer discards transitions.
func New(backend Backend, cfg Config, observer Observer, logger *zap.Logger) *Poller {
	defaults := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = defaults.MaxWait
	}
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = defaults.MaxConsecutiveErrors
	}
	if observer == nil {
		observer = func(Transition) {}
	}
	return &Poller{
		backend:  backend,
		cfg:      cfg,
		observer: observer,
		logger:   logger,
	}
}

func (p *Poller) emit(t Transition) {
	p.logger.Debug("Verification state", zap.Stringer("state", t.State), zap.String("message", t.Message))
	p.observer(t)
}

func (p *Poller) finish(state State, cert *service.CertificatePayload, message string, err error) (*Outcome, error) {
	p.emit(Transition{State: state, Certificate: cert, Message: message, Err: err})
	return &Outcome{State: state, Certificate: cert}, err
}

// Run verifies id and, when it is found unanchored, triggers anchoring and
// polls until it is confirmed. It returns ctx.Err() without an outcome when
// ctx ends first. Run does not return before the anchoring request it started
// has finished.
func (p *Poller) Run(ctx context.Context, id string) (*Outcome, error) {
	p.emit(Transition{State: Verifying})

	cert, found, err := p.backend.Verify(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		err = fmt.Errorf("%w: %w", ErrVerificationFailed, err)
		return p.finish(Failed, nil, err.Error(), err)
	}
	if !found {
		return p.finish(NotFound, nil, service.MessageNotFound, nil)
	}
	if cert.Anchored {
		return p.finish(FoundAnchored, cert, service.MessageVerified, nil)
	}

	p.emit(Transition{State: FoundUnanchored, Certificate: cert, Message: service.MessageVerified})

	var wg sync.WaitGroup
	defer wg.Wait()
	anchorCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.backend.Anchor(anchorCtx, id); err != nil && anchorCtx.Err() == nil {
			p.logger.Warn("Anchoring request failed", zap.String("id", id), zap.Error(err))
		}
	}()

	p.emit(Transition{State: AnchoringPending, Certificate: cert})
	return p.poll(ctx, id, cert)
}

func (p *Poller) poll(ctx context.Context, id string, last *service.CertificatePayload) (*Outcome, error) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	deadline := time.NewTimer(p.cfg.MaxWait)
	defer deadline.Stop()

	errorsInRow := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-deadline.C:
			return p.finish(TimedOut, last, MessageTimedOut, ErrTimedOut)

		case <-ticker.C:
			cert, found, err := p.backend.Verify(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				errorsInRow++
				p.logger.Warn("Verification during polling failed",
					zap.String("id", id),
					zap.Int("consecutive", errorsInRow),
					zap.Error(err),
				)
				if errorsInRow >= p.cfg.MaxConsecutiveErrors {
					err = fmt.Errorf("%w: %w", ErrVerificationFailed, err)
					return p.finish(Failed, last, err.Error(), err)
				}
				continue
			}
			errorsInRow = 0

			if !found {
				return p.finish(NotFound, nil, service.MessageNotFound, nil)
			}
			last = cert
			if cert.Anchored {
				return p.finish(FoundAnchored, cert, MessageAnchorConfirmed, nil)
			}
		}
	}
}
