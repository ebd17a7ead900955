package gateway

import (
	"fmt"
	"sync"
	"time"

	"apex-server/router-api/internal/infrastructure/logger"
)

// BreakerState is the current position of a provider circuit breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig defines when a provider is cut off and how it recovers.
type BreakerConfig struct {
	Enabled          bool
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // successes in half-open required to close
	Timeout          time.Duration // how long to stay open before probing
	MaxHalfOpenCalls int           // concurrent probes allowed in half-open
}

// DefaultBreakerConfig returns the thresholds used when none are supplied.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		FailureThreshold: 15,
		SuccessThreshold: 5,
		Timeout:          45 * time.Second,
		MaxHalfOpenCalls: 10,
	}
}

// breaker guards calls to a single provider. A run of failures opens the
// circuit; after the timeout a limited number of probe calls decide whether
// it closes again.
type breaker struct {
	cfg      BreakerConfig
	provider string

	mu            sync.Mutex
	state         BreakerState
	failures      int
	successes     int
	lastFailure   time.Time
	halfOpenCalls int
}

func newBreaker(provider string, cfg BreakerConfig) *breaker {
	return &breaker{
		cfg:      cfg,
		provider: provider,
		state:    BreakerClosed,
	}
}

func (b *breaker) execute(fn func() error) error {
	if !b.allow() {
		return fmt.Errorf("circuit breaker is open for provider %s", b.provider)
	}
	err := fn()
	b.record(err)
	return err
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.cfg.Enabled {
		return true
	}

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Since(b.lastFailure) > b.cfg.Timeout {
			log := logger.GetLogger()
			log.Info().
				Str("provider", b.provider).
				Msg("circuit breaker transitioning to half-open")
			b.state = BreakerHalfOpen
			b.halfOpenCalls = 0
			return true
		}
		return false
	case BreakerHalfOpen:
		if b.halfOpenCalls < b.cfg.MaxHalfOpenCalls {
			b.halfOpenCalls++
			return true
		}
		return false
	default:
		return false
	}
}

func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.cfg.Enabled {
		return
	}

	if err != nil {
		b.failures++
		b.successes = 0
		b.lastFailure = time.Now()

		log := logger.GetLogger()
		if b.state == BreakerHalfOpen {
			log.Warn().
				Str("provider", b.provider).
				Msg("circuit breaker reopening after failed probe")
			b.state = BreakerOpen
			b.halfOpenCalls = 0
		} else if b.state == BreakerClosed && b.failures >= b.cfg.FailureThreshold {
			log.Warn().
				Str("provider", b.provider).
				Int("failures", b.failures).
				Msg("circuit breaker opening, failure threshold reached")
			b.state = BreakerOpen
		}
		return
	}

	b.successes++
	if b.state == BreakerHalfOpen {
		if b.successes >= b.cfg.SuccessThreshold {
			log := logger.GetLogger()
			log.Info().
				Str("provider", b.provider).
				Msg("circuit breaker closing after successful probes")
			b.state = BreakerClosed
			b.failures = 0
			b.successes = 0
			b.halfOpenCalls = 0
		}
	} else if b.state == BreakerClosed {
		b.failures = 0
	}
}

func (b *breaker) currentState() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.cfg.Enabled {
		return BreakerClosed
	}
	return b.state
}
