// Package engine is the top-level session controller: it loads, repairs
// and persists per-session memory, detects resets and staleness, dispatches
// to the active flow handler and shapes the response envelope.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/packfolio/concierge/internal/logging"
	"github.com/packfolio/concierge/internal/metrics"
	"github.com/packfolio/concierge/pkg/charter"
	"github.com/packfolio/concierge/pkg/domain"
	"github.com/packfolio/concierge/pkg/flows"
	"github.com/packfolio/concierge/pkg/ports"
	"github.com/packfolio/concierge/pkg/session"
)

const (
	resetReply   = "Done! I've cleared our conversation. Say hi whenever you're ready to start again."
	apologyReply = "Something went wrong on my side. Please try again, or type reset to start over."
)

// Config wires the engine's collaborators.
type Config struct {
	Sessions *session.Manager
	Cache    ports.CatalogCache // optional; nil disables catalog caching
	Catalog  ports.CatalogProvider
	Orders   ports.OrderService
	Oracle   ports.Generator
	Shop     ports.ShopIdentity
	Charters *charter.Registry // optional; defaults to the built-in registry
	Logger   *slog.Logger
	Metrics  *metrics.Metrics

	// Provider labels oracle metrics (the configured oracle mode).
	Provider string

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// Engine processes one chat turn per call. All memory access for a session
// id is serialized through the session manager.
type Engine struct {
	sessions *session.Manager
	cache    ports.CatalogCache
	catalog  ports.CatalogProvider
	orders   ports.OrderService
	oracle   ports.Generator
	shop     ports.ShopIdentity
	charters *charter.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
	provider string
	now      func() time.Time
}

// New creates the engine.
func New(cfg Config) *Engine {
	e := &Engine{
		sessions: cfg.Sessions,
		cache:    cfg.Cache,
		catalog:  cfg.Catalog,
		orders:   cfg.Orders,
		oracle:   cfg.Oracle,
		shop:     cfg.Shop,
		charters: cfg.Charters,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		provider: cfg.Provider,
		now:      cfg.Now,
	}
	if e.charters == nil {
		e.charters = charter.NewRegistry()
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.metrics == nil {
		e.metrics = metrics.New()
	}
	if e.provider == "" {
		e.provider = "unknown"
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Metrics exposes the engine's registry for the HTTP adapter.
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// Chat is a convenience wrapper for callers that only have a message.
func (e *Engine) Chat(ctx context.Context, sessionID, message string) (Envelope, error) {
	body, _ := json.Marshal(Request{Message: message})
	return e.Handle(ctx, sessionID, body)
}

// Handle processes one turn for the session. The returned error marks an
// unhandled failure: the envelope still carries a user-facing apology, and
// transports should pair it with a failure status.
func (e *Engine) Handle(ctx context.Context, sessionID string, body []byte) (env Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic while handling chat turn", "session_id", sessionID, "panic", r)
			env = Envelope{Reply: apologyReply, FlowState: FlowState{Step: string(domain.StepStart)}}
			err = fmt.Errorf("unhandled failure: %v", r)
		}
	}()

	req := ParseRequest(body)

	lockErr := e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		env, err = e.handleLocked(ctx, sessionID, req)
		return nil
	})
	if lockErr != nil {
		e.logger.Error("session lock failed", "session_id", sessionID, "err", lockErr)
		return Envelope{Reply: apologyReply, FlowState: FlowState{Step: string(domain.StepStart)}}, lockErr
	}
	return env, err
}

func (e *Engine) handleLocked(ctx context.Context, sessionID string, req Request) (Envelope, error) {
	store := e.sessions.Store()
	now := e.now()

	// Explicit reset, flag or keyword, short-circuits everything else.
	if req.Reset || isResetMessage(req.Message) {
		if err := store.Delete(ctx, sessionID); err != nil && err != domain.ErrSessionNotFound {
			e.logger.Error("reset delete failed", "session_id", sessionID, "err", err)
			return Envelope{Reply: apologyReply, FlowState: FlowState{Step: string(domain.StepStart)}}, err
		}
		e.metrics.Resets.Inc()
		return Envelope{Reply: resetReply, FlowState: FlowState{Step: string(domain.StepStart)}}, nil
	}

	mem, err := store.Load(ctx, sessionID)
	switch {
	case err == domain.ErrSessionNotFound:
		mem = nil
	case err != nil:
		e.logger.Error("session load failed", "session_id", sessionID, "err", err)
		return Envelope{Reply: apologyReply, FlowState: FlowState{Step: string(domain.StepStart)}}, err
	}

	// A session past the inactivity horizon behaves exactly like a new one.
	if mem != nil && mem.Stale(now) {
		e.logger.Info("discarding stale session", "session_id", sessionID, "last_activity", mem.LastActivity)
		e.metrics.StaleDiscards.Inc()
		mem = nil
	}

	if mem == nil {
		mem = domain.NewMemory(e.resolveFlow(req.Flow, e.charters.Default().Meta.Flow), now)
	}

	// A stored flow nothing is registered for means corrupt data: start a
	// fresh default session rather than guess.
	c, ok := e.charters.ForFlow(mem.Flow)
	if !ok {
		e.logger.Warn("unknown flow in stored session, starting fresh", "session_id", sessionID, "flow", mem.Flow)
		c = e.charters.Default()
		mem = domain.NewMemory(c.Meta.Flow, now)
	}

	// Flow switch: move to the requested flow's start, dropping collected
	// answers. Logged so operators can quantify the data loss.
	if req.Flow != "" {
		if requested, ok := e.charters.ForFlow(domain.Flow(req.Flow)); ok && requested.Meta.Flow != mem.Flow {
			e.logger.Info("flow switched, discarding in-progress answers",
				"session_id", sessionID, "from", mem.Flow, "to", requested.Meta.Flow,
				"answers_discarded", len(mem.Clipboard))
			mem.Flow = requested.Meta.Flow
			mem.Step = domain.StepStart
			mem.Clipboard = make(map[string]string)
			mem.QuestionIndex = 0
			mem.PendingMatches = nil
			c = requested
		} else if !ok {
			e.logger.Warn("ignoring unknown requested flow", "session_id", sessionID, "flow", req.Flow)
		}
	}

	repair(c, mem, e.logger)

	handler := flows.New(c, flows.Deps{
		Oracle:  e.instrumentedOracle(),
		Catalog: e.catalogFor(sessionID),
		Order:   e.orderFor(),
		Logger:  e.logger,
	})

	e.metrics.Requests.WithLabelValues(string(mem.Flow)).Inc()
	res, err := handler.Handle(ctx, mem, req.Message)
	if err != nil {
		e.logger.Error("flow handler failed", "session_id", sessionID, "flow", mem.Flow, "step", mem.Step, "err", err)
		return buildEnvelope(c, mem, apologyReply, nil, nil), err
	}

	mem.Touch(now)

	if res.MemoryReset {
		if err := store.Delete(ctx, sessionID); err != nil && err != domain.ErrSessionNotFound {
			e.logger.Error("session delete failed", "session_id", sessionID, "err", err)
		}
	} else if err := store.Save(ctx, sessionID, mem); err != nil {
		e.logger.Error("session save failed", "session_id", sessionID, "err", err)
		return buildEnvelope(c, mem, apologyReply, nil, nil), err
	}

	return buildEnvelope(c, mem, res.Reply, res.DraftOrder, res.ProductMatches), nil
}

// resolveFlow maps a requested flow id to a registered one, else fallback.
func (e *Engine) resolveFlow(requested string, fallback domain.Flow) domain.Flow {
	if requested != "" {
		if c, ok := e.charters.ForFlow(domain.Flow(requested)); ok {
			return c.Meta.Flow
		}
	}
	return fallback
}

// instrumentedOracle counts oracle calls by provider and outcome.
func (e *Engine) instrumentedOracle() ports.Generator {
	return ports.GeneratorFunc(func(ctx context.Context, prompt, systemPrompt string) (string, error) {
		out, err := e.oracle.Generate(ctx, prompt, systemPrompt)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		e.metrics.OracleCalls.WithLabelValues(e.provider, outcome).Inc()
		return out, err
	})
}

// catalogFor binds catalog fetching to the session's short-lived cache.
func (e *Engine) catalogFor(sessionID string) func(ctx context.Context) ([]domain.Package, error) {
	return func(ctx context.Context) ([]domain.Package, error) {
		if e.cache != nil {
			if catalog, err := e.cache.LoadCatalog(ctx, sessionID); err == nil {
				return catalog, nil
			} else if err != domain.ErrCacheMiss {
				e.logger.Warn("catalog cache read failed", "session_id", sessionID, "err", err)
			}
		}
		catalog, err := e.catalog.FetchActiveCatalog(ctx, e.shop)
		if err != nil {
			return nil, err
		}
		if e.cache != nil {
			if err := e.cache.SaveCatalog(ctx, sessionID, catalog); err != nil {
				e.logger.Warn("catalog cache write failed", "session_id", sessionID, "err", err)
			}
		}
		return catalog, nil
	}
}

func (e *Engine) orderFor() func(ctx context.Context, variantID string, quantity int, note string, custom []domain.LineItem) (*domain.DraftOrder, error) {
	return func(ctx context.Context, variantID string, quantity int, note string, custom []domain.LineItem) (*domain.DraftOrder, error) {
		order, err := e.orders.CreateOrder(ctx, e.shop, variantID, quantity, note, custom)
		if err == nil {
			e.metrics.Orders.Inc()
		}
		return order, err
	}
}
