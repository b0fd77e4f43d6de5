package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"CrashRadar/internal/domain/models"
	drepo "CrashRadar/internal/domain/repository"
	"CrashRadar/internal/service/cache"
	svcmetrics "CrashRadar/internal/service/metrics"
	applogger "CrashRadar/pkg/logger"
	"CrashRadar/pkg/util"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ProviderConfig tunes the resilience layer around the upstream provider.
type ProviderConfig struct {
	Name     string
	RPS      float64
	Burst    int
	Timeout  time.Duration
	CacheTTL time.Duration

	BreakerMaxRequests  uint32
	BreakerInterval     time.Duration
	BreakerTimeout      time.Duration
	ConsecutiveFailures uint32
	FailureRatio        float64
	MinRequests         uint32
}

// ResilientProvider wraps a MarketDataProvider with a response cache, a shared
// outbound rate limit, a per-call timeout and one circuit breaker per symbol,
// so a failing ticker never short-circuits its siblings.
type ResilientProvider struct {
	next    drepo.MarketDataProvider
	cfg     ProviderConfig
	limiter *rate.Limiter
	cache   cache.BytesCache
	logger  *applogger.Logger

	mu        sync.Mutex
	breakers  map[string]*symbolBreaker
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type symbolBreaker struct {
	cb   *gobreaker.CircuitBreaker
	seen time.Time
}

// NewResilientProvider builds the wrapper. A nil cache disables caching.
func NewResilientProvider(next drepo.MarketDataProvider, c cache.BytesCache, cfg ProviderConfig, logger *applogger.Logger) *ResilientProvider {
	if cfg.Name == "" {
		cfg.Name = "provider"
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &ResilientProvider{
		next:     next,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, cfg.Burst),
		cache:    c,
		logger:   logger,
		breakers: make(map[string]*symbolBreaker),
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

func (p *ResilientProvider) newBreaker(symbol string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        p.cfg.Name + ":" + symbol,
		MaxRequests: p.cfg.BreakerMaxRequests,
		Interval:    p.cfg.BreakerInterval,
		Timeout:     p.cfg.BreakerTimeout,
		ReadyToTrip: readyToTrip(p.cfg),
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			svcmetrics.BreakerState.WithLabelValues(name).Set(float64(to))
			p.logger.Warn("provider breaker state changed",
				applogger.String("breaker", name),
				applogger.String("from", from.String()),
				applogger.String("to", to.String()),
			)
		},
	})
}

// breaker returns the symbol's breaker, creating it on first use. Closed
// breakers idle for longer than idleTTL are dropped on the next sweep.
func (p *ResilientProvider) breaker(symbol string) *gobreaker.CircuitBreaker {
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.breakers[symbol]
	if !ok {
		b = &symbolBreaker{cb: p.newBreaker(symbol)}
		p.breakers[symbol] = b
	}
	b.seen = now
	p.sweep(now)
	return b.cb
}

func (p *ResilientProvider) sweep(now time.Time) {
	if now.Sub(p.lastSweep) < p.idleTTL {
		return
	}
	p.lastSweep = now
	for sym, b := range p.breakers {
		if now.Sub(b.seen) > p.idleTTL && b.cb.State() == gobreaker.StateClosed {
			svcmetrics.BreakerState.DeleteLabelValues(b.cb.Name())
			delete(p.breakers, sym)
		}
	}
}

func readyToTrip(cfg ProviderConfig) func(gobreaker.Counts) bool {
	return func(c gobreaker.Counts) bool {
		if cfg.ConsecutiveFailures > 0 && c.ConsecutiveFailures >= cfg.ConsecutiveFailures {
			return true
		}
		if cfg.FailureRatio > 0 && c.Requests >= cfg.MinRequests && c.Requests > 0 {
			return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureRatio
		}
		return false
	}
}

// State reports the breaker state of symbol. Untracked symbols are closed.
func (p *ResilientProvider) State(symbol string) gobreaker.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.breakers[symbol]; ok {
		return b.cb.State()
	}
	return gobreaker.StateClosed
}

// Tracked returns the number of symbols with a live breaker.
func (p *ResilientProvider) Tracked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.breakers)
}

func (p *ResilientProvider) History(ctx context.Context, symbol string, start, end time.Time) (*models.Frame, error) {
	key := fmt.Sprintf("history:%s:%s:%s", symbol, util.FormatDate(start), util.FormatDate(end))
	return p.do(ctx, symbol, key, func(ctx context.Context) (*models.Frame, error) {
		return p.next.History(ctx, symbol, start, end)
	})
}

func (p *ResilientProvider) Period(ctx context.Context, symbol string, period models.Period) (*models.Frame, error) {
	key := fmt.Sprintf("period:%s:%s", symbol, period)
	return p.do(ctx, symbol, key, func(ctx context.Context) (*models.Frame, error) {
		return p.next.Period(ctx, symbol, period)
	})
}

func (p *ResilientProvider) do(ctx context.Context, symbol, key string, fetch func(context.Context) (*models.Frame, error)) (*models.Frame, error) {
	if f, ok := p.cached(ctx, key); ok {
		return f, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("provider rate limit: %w", err)
	}

	res, err := p.breaker(symbol).Execute(func() (interface{}, error) {
		callCtx := ctx
		if p.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
			defer cancel()
		}
		return fetch(callCtx)
	})
	if err != nil {
		return nil, err
	}
	frame, _ := res.(*models.Frame)
	if frame == nil {
		frame = &models.Frame{}
	}
	p.store(ctx, key, frame)
	return frame, nil
}

func (p *ResilientProvider) cached(ctx context.Context, key string) (*models.Frame, bool) {
	if p.cache == nil || p.cfg.CacheTTL <= 0 {
		return nil, false
	}
	b, ok, err := p.cache.GetBytes(ctx, key)
	if err != nil {
		p.logger.Warn("provider cache read failed", applogger.String("key", key), applogger.Error(err))
		svcmetrics.CacheLookups.WithLabelValues("provider", "error").Inc()
		return nil, false
	}
	if !ok {
		svcmetrics.CacheLookups.WithLabelValues("provider", "miss").Inc()
		return nil, false
	}
	var f models.Frame
	if err := json.Unmarshal(b, &f); err != nil {
		p.logger.Warn("provider cache entry corrupt", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	svcmetrics.CacheLookups.WithLabelValues("provider", "hit").Inc()
	return &f, true
}

func (p *ResilientProvider) store(ctx context.Context, key string, f *models.Frame) {
	if p.cache == nil || p.cfg.CacheTTL <= 0 {
		return
	}
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	if err := p.cache.SetBytes(ctx, key, b, p.cfg.CacheTTL); err != nil {
		p.logger.Warn("provider cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}

var _ drepo.MarketDataProvider = (*ResilientProvider)(nil)
