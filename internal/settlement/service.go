// Package settlement closes out a table: it issues the receipt, tells the
// backend and empties the table locally.
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"maitred/internal/dispatch"
	"maitred/internal/models"
	"maitred/internal/monitoring"
	"maitred/internal/remote"
)

// Renderer produces a customer-facing receipt and returns where it went.
type Renderer interface {
	Render(r models.Receipt) (string, error)
}

// Sink is told about settled tables.
type Sink interface {
	ClearTable(ctx context.Context, table int) (remote.ClearResult, error)
}

// Orders is the part of the order store settlement needs.
type Orders interface {
	View(table int) ([]models.OrderLine, int64)
	ClearTable(table int) []models.OrderLine
}

// Reservations is the part of the reservation tracker settlement needs.
type Reservations interface {
	IsReserved(table int) bool
	Cancel(table int) error
}

// Notice reports how the backend took a settlement.
type Notice struct {
	Receipt models.Receipt
	Err     error
}

// Service settles tables. Settle must run on the dispatcher's goroutine.
type Service struct {
	orders       Orders
	reservations Reservations
	renderer     Renderer
	sink         Sink
	ledger       *Ledger
	dispatcher   dispatch.Dispatcher
	metrics      *monitoring.Metrics
	log          *zap.Logger
	timeout      time.Duration

	now      func() time.Time
	newID    func() string
	onNotify []func(Notice)
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the settlement timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs overrides receipt id generation
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithTimeout bounds the backend notification
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService creates a settlement service. sink may be nil when there is no
// backend to notify.
func NewService(orders Orders, reservations Reservations, renderer Renderer, sink Sink, ledger *Ledger, dispatcher dispatch.Dispatcher, metrics *monitoring.Metrics, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		orders:       orders,
		reservations: reservations,
		renderer:     renderer,
		sink:         sink,
		ledger:       ledger,
		dispatcher:   dispatcher,
		metrics:      metrics,
		log:          log,
		timeout:      10 * time.Second,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnNotify registers fn to receive the backend's answer to each settlement.
// fn runs on the dispatcher.
func (s *Service) OnNotify(fn func(Notice)) {
	s.onNotify = append(s.onNotify, fn)
}

// Ledger returns the session ledger
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// Settle issues the table's receipt and clears it. A render failure leaves
// everything as it was. The backend is notified in the background and its
// answer never undoes the local clear.
func (s *Service) Settle(ctx context.Context, table int) (models.Receipt, string, error) {
	lines, total := s.orders.View(table)
	receipt := models.Receipt{
		ID:          s.newID(),
		TableNumber: table,
		Lines:       lines,
		Total:       total,
		SettledAt:   s.now(),
	}

	location, err := s.renderer.Render(receipt)
	if err != nil {
		return models.Receipt{}, "", fmt.Errorf("failed to render receipt for table %d: %w", table, err)
	}

	s.notify(ctx, receipt)

	s.orders.ClearTable(table)
	if s.reservations.IsReserved(table) {
		if err := s.reservations.Cancel(table); err != nil {
			s.log.Warn("Failed to release reservation", zap.Int("table", table), zap.Error(err))
		}
	}
	s.ledger.Record(receipt)
	s.metrics.RecordSettlement(receipt.Total)

	s.log.Info("Table settled",
		zap.Int("table", table),
		zap.String("receipt_id", receipt.ID),
		zap.Int("items", receipt.ItemCount()),
		zap.Int64("total", receipt.Total),
	)
	return receipt, location, nil
}

func (s *Service) notify(ctx context.Context, receipt models.Receipt) {
	if s.sink == nil {
		return
	}

	go func() {
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		result, err := s.sink.ClearTable(reqCtx, receipt.TableNumber)
		if err == nil && !result.Success {
			err = fmt.Errorf("backend refused settlement of table %d: %s", receipt.TableNumber, result.Message)
		}

		s.dispatcher.Post(func() {
			if err != nil {
				s.metrics.RecordNotifyFailure()
				s.log.Warn("Settlement notification failed",
					zap.Int("table", receipt.TableNumber),
					zap.String("receipt_id", receipt.ID),
					zap.Error(err),
				)
			}
			for _, fn := range s.onNotify {
				fn(Notice{Receipt: receipt, Err: err})
			}
		})
	}()
}
