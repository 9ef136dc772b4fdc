package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"FeeAllocator/internal/allocation"
	"FeeAllocator/internal/calculator"
	"FeeAllocator/internal/fund"
	"FeeAllocator/internal/gateway"
	"FeeAllocator/internal/metrics"
	"FeeAllocator/internal/model"
	"FeeAllocator/internal/recorder"
	"FeeAllocator/internal/retry"
	"FeeAllocator/internal/scheduler"
	"FeeAllocator/internal/selector"
	"FeeAllocator/internal/strategy"
)

// DefaultOperatingBuffer is kept back from every claim for transaction costs.
const DefaultOperatingBuffer int64 = 5_000_000

// Config describes one engine instance for one tracked asset.
type Config struct {
	AssetID         string
	OperatingWallet string
	MinDistribution int64
	OperatingBuffer int64
	Percentages     calculator.Percentages
	MomentumPeriod  int
	SampleOnCycle   bool
	MinHolders      int
	Retry           retry.Policy
}

// Reporter is told about every scheduled cycle that claimed something.
type Reporter interface {
	ReportCycle(ctx context.Context, res model.CycleResult)
}

// Option customises an Engine.
type Option func(*Engine)

// WithStore persists the accumulator and counters after every change.
func WithStore(s fund.StateStore) Option { return func(e *Engine) { e.store = s } }

// WithRecorder writes claim and action history.
func WithRecorder(r recorder.Recorder) Option { return func(e *Engine) { e.rec = r } }

// WithMetrics publishes Prometheus metrics.
func WithMetrics(m *metrics.Registry) Option { return func(e *Engine) { e.metrics = m } }

// WithReporter sends scheduled cycle reports.
func WithReporter(r Reporter) Option { return func(e *Engine) { e.reporter = r } }

// WithRand fixes the holder selection source.
func WithRand(r selector.Rand) Option { return func(e *Engine) { e.rand = r } }

// Engine is the claim-and-distribute pipeline for one asset.
// Distribute, flush and cycle are serialised; status reads never block on them.
type Engine struct {
	cfg      Config
	gw       gateway.Gateway
	exec     *retry.Executor
	momentum *calculator.Momentum
	acc      *fund.Accumulator
	stats    *fund.Stats
	orch     *Orchestrator
	sched    *scheduler.Scheduler

	store    fund.StateStore
	rec      recorder.Recorder
	metrics  *metrics.Registry
	reporter Reporter
	rand     selector.Rand

	mu  sync.Mutex
	now func() time.Time
}

// New wires the four actions against gw.
func New(cfg Config, gw gateway.Gateway, opts ...Option) (*Engine, error) {
	if cfg.AssetID == "" {
		return nil, errors.New("asset id is required")
	}
	if gw == nil {
		return nil, errors.New("gateway is required")
	}
	if cfg.OperatingBuffer < 0 {
		return nil, fmt.Errorf("operating buffer must not be negative, got %d", cfg.OperatingBuffer)
	}
	if cfg.MinHolders <= 0 {
		cfg.MinHolders = allocation.DefaultMinHolders
	}
	if cfg.Percentages == (calculator.Percentages{}) {
		cfg.Percentages = calculator.DefaultPercentages
	}

	e := &Engine{
		cfg:      cfg,
		gw:       gw,
		exec:     retry.New(cfg.Retry),
		momentum: calculator.NewMomentum(cfg.MomentumPeriod),
		acc:      fund.NewAccumulator(),
		stats:    fund.NewStats(),
		sched:    scheduler.New(),
		rec:      recorder.NewNoopRecorder(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	env := allocation.Env{AssetID: cfg.AssetID, Exec: e.exec}
	orch, err := NewOrchestrator(cfg.MinDistribution, cfg.Percentages, e.acc, e.stats,
		&allocation.Burn{Env: env, Swap: gw},
		&allocation.Buyback{Env: env, Swap: gw, Momentum: e.momentum},
		&allocation.Reward{Env: env, Swap: gw, Holders: gw, MinHolders: cfg.MinHolders, OperatingWallet: cfg.OperatingWallet, Rand: e.rand},
		&allocation.PoolLock{Env: env, Swap: gw, Pool: gw},
	)
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}
	e.orch = orch
	return e, nil
}

// Load restores accumulator and counters from the state store, if any.
func (e *Engine) Load(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	st, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if st.AssetID != "" && st.AssetID != e.cfg.AssetID {
		return fmt.Errorf("state belongs to asset %s, engine runs %s", st.AssetID, e.cfg.AssetID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.acc.Load(st)
	e.stats.Load(st.Stats)
	e.publishBuckets()
	log.Info().Int64("pending", e.acc.Total()).Int64("claims", st.Stats.ClaimCount).Msg("engine state restored")
	return nil
}

// UpdatePrice feeds one price sample into the momentum indicator. A price of
// zero or less fetches the current price from the fee source.
func (e *Engine) UpdatePrice(ctx context.Context, price float64) (float64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("invalid price %v", price)
	}
	if price <= 0 {
		p, err := retry.Do(ctx, e.exec, "price.fetch", func(ctx context.Context) (float64, error) {
			return e.gw.Price(ctx, e.cfg.AssetID)
		})
		if err != nil {
			return 0, err
		}
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return 0, fmt.Errorf("fee source returned invalid price %v", p)
		}
		price = p
	}
	e.momentum.AddSample(price)
	reading := e.momentum.Compute()
	e.metrics.SetMomentum(reading)
	log.Debug().Float64("price", price).Float64("momentum", reading.Value).Bool("ready", reading.Ready).Msg("price sample added")
	return price, nil
}

// DistributeFees distributes total directly, without claiming.
func (e *Engine) DistributeFees(ctx context.Context, total int64) model.DistributionResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.orch.Distribute(ctx, total)
	if d.Outcome == model.OutcomeDistributed {
		e.afterDistribution(ctx, uuid.NewString(), "manual", &d)
	}
	return d
}

// ClaimAndDistribute runs one full cycle: claim, keep the operating buffer,
// threshold, distribute. Failures are reported in the result, never returned.
func (e *Engine) ClaimAndDistribute(ctx context.Context) (res model.CycleResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res = model.CycleResult{ID: uuid.NewString(), StartedAt: e.now()}
	defer func() {
		res.Duration = e.now().Sub(res.StartedAt)
		e.metrics.ObserveCycle(res)
		if err := e.rec.RecordClaim(&recorder.ClaimEvent{
			CycleID:       res.ID,
			Status:        res.Status,
			Claimed:       res.Claimed,
			Distributable: res.Distributable,
			Reference:     res.Reference,
			Error:         res.Error,
			At:            res.StartedAt,
		}); err != nil {
			log.Error().Err(err).Str("cycle_id", res.ID).Msg("record claim")
		}
	}()

	if e.cfg.SampleOnCycle {
		if _, err := e.UpdatePrice(ctx, 0); err != nil {
			log.Warn().Err(err).Str("cycle_id", res.ID).Msg("price refresh failed")
		}
	}

	rc, err := retry.Do(ctx, e.exec, "fees.claim", func(ctx context.Context) (gateway.ClaimReceipt, error) {
		return e.gw.Claim(ctx, e.cfg.AssetID)
	})
	if errors.Is(err, gateway.ErrNoFeesAvailable) {
		rc, err = gateway.ClaimReceipt{}, nil
	}
	if err != nil {
		res.Status = model.CycleClaimFailed
		res.Error = err.Error()
		log.Error().Err(err).Str("cycle_id", res.ID).Msg("fee claim failed")
		return res
	}

	res.Claimed = rc.Amount
	res.Reference = rc.Reference
	if rc.Amount <= 0 {
		res.Status = model.CycleNothingClaimed
		log.Info().Str("cycle_id", res.ID).Msg("no fees to claim")
		return res
	}
	e.stats.RecordClaim(rc.Amount, res.StartedAt)

	res.Distributable = rc.Amount - e.cfg.OperatingBuffer
	if res.Distributable < 0 {
		res.Distributable = 0
	}
	if res.Distributable < e.orch.MinDistribution() || res.Distributable == 0 {
		res.Status = model.CycleClaimedNotDistributed
		log.Info().Str("cycle_id", res.ID).Int64("claimed", rc.Amount).Int64("distributable", res.Distributable).
			Msg("claimed amount below distribution threshold")
		e.persist(ctx)
		return res
	}

	d := e.orch.Distribute(ctx, res.Distributable)
	res.Distribution = &d
	res.Status = model.CycleDistributed
	e.afterDistribution(ctx, res.ID, "cycle", &d)

	log.Info().Str("cycle_id", res.ID).Int64("claimed", rc.Amount).Int64("distributed", d.Spent()).Msg("cycle complete")
	return res
}

// FlushAccumulated distributes everything pending as one fresh total.
func (e *Engine) FlushAccumulated(ctx context.Context) model.FlushResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := e.orch.Flush(ctx)
	if res.Distribution != nil && res.Distribution.Outcome == model.OutcomeDistributed {
		e.afterDistribution(ctx, res.ID, "flush", res.Distribution)
	}
	return res
}

// Status returns a read-only snapshot.
func (e *Engine) Status() model.Status {
	reading := e.momentum.Compute()
	pending, stranded := e.acc.Snapshot()
	return model.Status{
		AssetID:        e.cfg.AssetID,
		Momentum:       reading,
		MomentumAction: strategy.Classify(reading),
		Accumulated:    pending,
		Stranded:       stranded,
		Stats:          e.stats.Snapshot(),
		LoopRunning:    e.sched.Running(),
	}
}

// StartLoop runs a cycle now and then every interval until StopLoop or ctx ends.
func (e *Engine) StartLoop(ctx context.Context, interval time.Duration) error {
	return e.sched.Start(ctx, "fee-cycle", interval, e.loopCycle)
}

// StopLoop stops future cycles. An in-flight cycle completes.
func (e *Engine) StopLoop() { e.sched.Stop() }

func (e *Engine) loopCycle(ctx context.Context) error {
	res := e.ClaimAndDistribute(ctx)
	if e.reporter != nil && res.Claimed > 0 {
		e.reporter.ReportCycle(ctx, res)
	}
	if res.Status == model.CycleClaimFailed {
		return errors.New(res.Error)
	}
	return nil
}

func (e *Engine) afterDistribution(ctx context.Context, id, source string, d *model.DistributionResult) {
	e.metrics.ObserveDistribution(*d)
	if err := e.rec.RecordActions(recorder.ActionEvents(id, source, d)); err != nil {
		log.Error().Err(err).Str("cycle_id", id).Msg("record actions")
	}
	e.persist(ctx)
}

// persist saves state and refreshes bucket gauges. Must hold e.mu.
func (e *Engine) persist(ctx context.Context) {
	e.publishBuckets()
	if e.store == nil {
		return
	}
	pending, stranded := e.acc.Snapshot()
	st := &model.EngineState{
		AssetID:     e.cfg.AssetID,
		Accumulated: pending,
		Stranded:    stranded,
		Stats:       e.stats.Snapshot(),
		UpdatedAt:   e.now(),
	}
	if err := e.store.Save(ctx, st); err != nil {
		log.Error().Err(err).Msg("save engine state")
	}
}

func (e *Engine) publishBuckets() {
	pending, stranded := e.acc.Snapshot()
	e.metrics.SetBuckets(pending, stranded)
}
