// Package syncer keeps the order store in step with the backend's table
// snapshot and carries local table changes back to it.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"maitred/internal/dispatch"
	"maitred/internal/models"
	"maitred/internal/monitoring"
	"maitred/internal/remote"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 10 * time.Second
)

// ErrRejected is wrapped by CancelAll when the backend answers without success.
var ErrRejected = errors.New("backend rejected request")

// State of the pull cycle
type State int

const (
	StateIdle State = iota
	StateFetching
	StateApplying
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateApplying:
		return "applying"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Source is the backend as the engine sees it.
type Source interface {
	FetchTables(ctx context.Context) ([]json.RawMessage, error)
	SubmitOrder(ctx context.Context, table int, lines []models.OrderLine, total int64) error
	ClearTable(ctx context.Context, table int) (remote.ClearResult, error)
}

// Store is the part of orders.Store the engine writes to.
type Store interface {
	View(table int) ([]models.OrderLine, int64)
	ReplaceAll(lines []models.OrderLine)
	ClearTable(table int) []models.OrderLine
}

// Options tunes the pull cycle. Zero values take the defaults.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Result is delivered to listeners after every pull that was not discarded.
type Result struct {
	Seq    uint64
	Report Report
	Err    error
	At     time.Time
}

// Status is a point-in-time view of the engine for display.
type Status struct {
	State    State
	Active   bool
	LastSync time.Time
	LastErr  error
}

// Engine drives the periodic pull. Every method must be called on the
// dispatcher's goroutine; network calls run elsewhere and post their
// completion back through the dispatcher.
type Engine struct {
	source     Source
	store      Store
	dispatcher dispatch.Dispatcher
	metrics    *monitoring.Metrics
	log        *zap.Logger
	interval   time.Duration
	timeout    time.Duration

	parent      context.Context
	stopTicker  context.CancelFunc
	cancelFetch context.CancelFunc
	active      bool
	state       State
	seq         uint64
	followUp    bool
	lastSync    time.Time
	lastErr     error
	listeners   []func(Result)
}

// NewEngine creates a stopped engine
func NewEngine(source Source, store Store, dispatcher dispatch.Dispatcher, opts Options, metrics *monitoring.Metrics, log *zap.Logger) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Engine{
		source:     source,
		store:      store,
		dispatcher: dispatcher,
		metrics:    metrics,
		log:        log,
		interval:   opts.Interval,
		timeout:    opts.Timeout,
		parent:     context.Background(),
	}
}

// OnResult registers fn to run after each applied or failed pull
func (e *Engine) OnResult(fn func(Result)) {
	e.listeners = append(e.listeners, fn)
}

// Start begins the cycle with an immediate pull. Cancelling ctx stops the
// ticker and any request in flight.
func (e *Engine) Start(ctx context.Context) {
	if e.active {
		return
	}
	e.active = true
	e.parent, e.stopTicker = context.WithCancel(ctx)
	go e.runTicker(e.parent)

	e.log.Info("Sync engine started", zap.Duration("interval", e.interval), zap.Duration("timeout", e.timeout))
	e.begin()
}

// Stop halts the cycle. A pull still in flight is cancelled and its
// completion will not touch the store.
func (e *Engine) Stop() {
	if !e.active {
		return
	}
	e.active = false
	e.seq++
	e.followUp = false
	if e.cancelFetch != nil {
		e.cancelFetch()
		e.cancelFetch = nil
	}
	if e.stopTicker != nil {
		e.stopTicker()
		e.stopTicker = nil
	}
	e.state = StateIdle
	e.log.Info("Sync engine stopped")
}

// Refresh requests a pull now. While one is in flight exactly one follow-up
// pull is queued behind it.
func (e *Engine) Refresh() {
	if !e.active {
		return
	}
	if e.state == StateFetching {
		if !e.followUp {
			e.followUp = true
		}
		e.metrics.RecordCoalesced()
		return
	}
	e.begin()
}

// Invalidate cancels a pull in flight without starting another. Its
// completion will not touch the store. A queued follow-up is dropped too;
// callers Refresh once the backend reflects their local change.
func (e *Engine) Invalidate() {
	if !e.active || e.state != StateFetching {
		return
	}
	e.seq++
	e.followUp = false
	if e.cancelFetch != nil {
		e.cancelFetch()
		e.cancelFetch = nil
	}
	e.state = StateIdle
	e.log.Debug("Pull in flight invalidated", zap.Uint64("seq", e.seq))
}

// State returns the current cycle state
func (e *Engine) State() State {
	return e.state
}

// Status returns the state with the last outcome
func (e *Engine) Status() Status {
	return Status{
		State:    e.state,
		Active:   e.active,
		LastSync: e.lastSync,
		LastErr:  e.lastErr,
	}
}

// Push sends the table's current lines to the backend. done runs on the
// dispatcher with the outcome.
func (e *Engine) Push(table int, done func(error)) {
	lines, total := e.store.View(table)
	ctx := e.parent

	go func() {
		reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		err := e.source.SubmitOrder(reqCtx, table, lines, total)

		e.dispatcher.Post(func() {
			e.metrics.RecordPush("submit", err)
			if err != nil {
				e.log.Warn("Order submission failed", zap.Int("table", table), zap.Error(err))
			} else {
				e.log.Info("Order submitted", zap.Int("table", table), zap.Int("lines", len(lines)), zap.Int64("total", total))
				e.supersede()
			}
			if done != nil {
				done(err)
			}
		})
	}()
}

// CancelAll asks the backend to drop every order on the table. The local
// lines are cleared only once the backend confirms.
func (e *Engine) CancelAll(table int, done func(error)) {
	ctx := e.parent

	go func() {
		reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		result, err := e.source.ClearTable(reqCtx, table)
		if err == nil && !result.Success {
			err = fmt.Errorf("clear table %d: %s: %w", table, result.Message, ErrRejected)
		}

		e.dispatcher.Post(func() {
			e.metrics.RecordPush("cancel", err)
			if err != nil {
				e.log.Warn("Cancel all failed", zap.Int("table", table), zap.Error(err))
			} else {
				cleared := e.store.ClearTable(table)
				e.log.Info("Table cancelled", zap.Int("table", table), zap.Int("lines", len(cleared)))
				e.supersede()
			}
			if done != nil {
				done(err)
			}
		})
	}()
}

func (e *Engine) runTicker(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.dispatcher.Post(e.tick)
		}
	}
}

func (e *Engine) tick() {
	if !e.active {
		return
	}
	if e.state == StateFetching {
		e.metrics.RecordCoalesced()
		e.log.Debug("Skipping tick, pull in flight", zap.Uint64("seq", e.seq))
		return
	}
	e.begin()
}

// supersede restarts a pull that was issued before a confirmed remote write.
func (e *Engine) supersede() {
	if !e.active || e.state != StateFetching {
		return
	}
	if e.cancelFetch != nil {
		e.cancelFetch()
	}
	e.begin()
}

func (e *Engine) begin() {
	e.seq++
	seq := e.seq
	ctx, cancel := context.WithTimeout(e.parent, e.timeout)
	e.cancelFetch = cancel
	e.state = StateFetching
	started := time.Now()

	go func() {
		raw, err := e.source.FetchTables(ctx)
		took := time.Since(started)
		e.dispatcher.Post(func() {
			cancel()
			e.complete(seq, raw, err, took)
		})
	}()
}

func (e *Engine) complete(seq uint64, raw []json.RawMessage, err error, took time.Duration) {
	if !e.active || seq != e.seq {
		e.metrics.RecordPull(monitoring.OutcomeDiscarded, took)
		e.log.Debug("Discarding stale pull", zap.Uint64("seq", seq), zap.Uint64("latest", e.seq))
		return
	}
	e.cancelFetch = nil

	result := Result{Seq: seq, At: time.Now()}
	if err != nil {
		e.state = StateFailed
		e.lastErr = err
		e.metrics.RecordPull(monitoring.OutcomeFailed, took)
		e.log.Warn("Table pull failed", zap.Uint64("seq", seq), zap.Error(err))
		result.Err = err
	} else {
		e.state = StateApplying
		lines, report := ParseSnapshot(raw, e.log)
		e.store.ReplaceAll(lines)
		e.lastSync = result.At
		e.lastErr = nil
		e.metrics.RecordDropped("table", report.DroppedTables)
		e.metrics.RecordDropped("line", report.DroppedLines)
		e.metrics.RecordPull(monitoring.OutcomeApplied, took)
		e.log.Debug("Table snapshot applied",
			zap.Uint64("seq", seq),
			zap.Int("tables", report.Tables),
			zap.Int("lines", report.Lines),
			zap.Int("dropped_tables", report.DroppedTables),
			zap.Int("dropped_lines", report.DroppedLines),
		)
		result.Report = report
	}

	for _, fn := range e.listeners {
		fn(result)
	}

	e.state = StateIdle
	if e.followUp {
		e.followUp = false
		e.begin()
	}
}
