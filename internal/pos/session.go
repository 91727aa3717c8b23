// Package pos wires the stores, the sync engine and settlement into one
// session. Everything the user interface does goes through a Session.
package pos

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"maitred/internal/dispatch"
	"maitred/internal/menu"
	"maitred/internal/models"
	"maitred/internal/monitoring"
	"maitred/internal/orders"
	"maitred/internal/remote"
	"maitred/internal/reservations"
	"maitred/internal/settlement"
	"maitred/internal/syncer"
	"maitred/internal/tables"
)

const (
	DefaultTableCount = 20
	maxNotices        = 8
)

// Backend is everything the session needs from the restaurant backend.
type Backend interface {
	menu.Source
	syncer.Source
}

// Options configures a Session
type Options struct {
	TableCount     int
	SyncInterval   time.Duration
	RequestTimeout time.Duration
}

// Notice is a short message for the operator.
type Notice struct {
	At      time.Time
	Message string
	IsError bool
}

// Session owns the POS state. Apart from the read-only accessors noted
// below, its methods must run on the dispatcher's goroutine.
type Session struct {
	dispatcher dispatch.Dispatcher
	metrics    *monitoring.Metrics
	log        *zap.Logger
	tableCount int
	timeout    time.Duration

	catalog      *menu.Catalog
	orders       *orders.Store
	reservations *reservations.Tracker
	aggregator   *tables.Aggregator
	engine       *syncer.Engine
	settlement   *settlement.Service

	ctx     context.Context
	notices []Notice
}

// NewSession builds a session over backend. Receipts go to renderer.
func NewSession(backend Backend, renderer settlement.Renderer, dispatcher dispatch.Dispatcher, opts Options, metrics *monitoring.Metrics, log *zap.Logger) *Session {
	if opts.TableCount <= 0 {
		opts.TableCount = DefaultTableCount
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = syncer.DefaultTimeout
	}

	catalog := menu.NewCatalog(backend, log.Named("menu"))
	store := orders.NewStore(catalog)
	tracker := reservations.NewTracker()

	s := &Session{
		dispatcher:   dispatcher,
		metrics:      metrics,
		log:          log,
		tableCount:   opts.TableCount,
		timeout:      opts.RequestTimeout,
		catalog:      catalog,
		orders:       store,
		reservations: tracker,
		aggregator:   tables.NewAggregator(store, tracker),
		ctx:          context.Background(),
	}

	s.engine = syncer.NewEngine(backend, store, dispatcher, syncer.Options{
		Interval: opts.SyncInterval,
		Timeout:  opts.RequestTimeout,
	}, metrics, log.Named("sync"))
	s.engine.OnResult(s.onSyncResult)

	s.settlement = settlement.NewService(store, tracker, renderer, backend, settlement.NewLedger(), dispatcher, metrics, log.Named("settlement"),
		settlement.WithTimeout(opts.RequestTimeout),
	)
	s.settlement.OnNotify(s.onSettlementNotice)

	return s
}

// Start loads the menu and begins syncing tables
func (s *Session) Start(ctx context.Context) {
	s.ctx = ctx
	s.RefreshMenu(nil)
	s.engine.Start(ctx)
}

// Stop halts syncing. Requests in flight are abandoned.
func (s *Session) Stop() {
	s.engine.Stop()
}

// TableCount returns the number of tables on the floor
func (s *Session) TableCount() int {
	return s.tableCount
}

// RefreshMenu reloads the catalog in the background. The previous catalog
// stays in place if the fetch fails. done may be nil.
func (s *Session) RefreshMenu(done func(error)) {
	ctx := s.ctx
	go func() {
		reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		items, err := s.catalog.Fetch(reqCtx)

		s.dispatcher.Post(func() {
			if err != nil {
				s.log.Warn("Menu refresh failed, keeping previous catalog", zap.Error(err))
				s.notify(true, "menu refresh failed: %v", err)
			} else {
				dropped := s.catalog.Replace(items)
				s.metrics.RecordDropped("menu_item", dropped)
				s.log.Info("Menu loaded", zap.Int("items", s.catalog.Len()), zap.Int("dropped", dropped))
			}
			if done != nil {
				done(err)
			}
		})
	}()
}

// Refresh asks for an immediate table pull
func (s *Session) Refresh() {
	s.engine.Refresh()
}

// HandleEvent reacts to a backend change notification
func (s *Session) HandleEvent(ev remote.TableEvent) {
	if ev.Type != remote.EventTablesChanged {
		s.log.Debug("Ignoring backend event", zap.String("type", ev.Type))
		return
	}
	s.engine.Refresh()
}

// AddItem adds one unit of a catalog item to the table
func (s *Session) AddItem(table int, itemID string) (models.OrderLine, error) {
	if err := s.checkTable(table); err != nil {
		return models.OrderLine{}, err
	}
	line, err := s.orders.AddCatalogItem(table, itemID)
	if err != nil {
		return models.OrderLine{}, err
	}
	s.log.Debug("Item added", zap.Int("table", table), zap.String("item", line.ItemName), zap.Int("quantity", line.Quantity))
	return line, nil
}

// Adjust changes the quantity of the line with the given key. A line that
// reaches zero is removed.
func (s *Session) Adjust(table int, key string, delta int) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	s.orders.AdjustQuantity(table, key, delta)
	return nil
}

// Reserve marks the table as reserved
func (s *Session) Reserve(table int) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	return s.reservations.Reserve(table)
}

// CancelReservation releases the table's reservation
func (s *Session) CancelReservation(table int) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	return s.reservations.Cancel(table)
}

// Settle issues the table's receipt and clears it. It returns where the
// receipt was written.
func (s *Session) Settle(table int) (models.Receipt, string, error) {
	if err := s.checkTable(table); err != nil {
		return models.Receipt{}, "", err
	}
	receipt, location, err := s.settlement.Settle(s.ctx, table)
	if err != nil {
		s.notify(true, "table %d: %v", table, err)
		return models.Receipt{}, "", err
	}
	// A pull issued before the clear still carries the settled lines.
	s.engine.Invalidate()
	s.notify(false, "table %d settled, receipt saved to %s", table, location)
	return receipt, location, nil
}

// Submit sends the table's order to the backend. done may be nil.
func (s *Session) Submit(table int, done func(error)) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	s.engine.Push(table, func(err error) {
		if err != nil {
			s.notify(true, "table %d: order not sent: %v", table, err)
		} else {
			s.notify(false, "table %d: order sent", table)
		}
		if done != nil {
			done(err)
		}
	})
	return nil
}

// CancelAll asks the backend to drop the table's orders. done may be nil.
func (s *Session) CancelAll(table int, done func(error)) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	s.engine.CancelAll(table, func(err error) {
		if err != nil {
			s.notify(true, "table %d: cancel failed: %v", table, err)
		} else {
			s.notify(false, "table %d: all orders cancelled", table)
		}
		if done != nil {
			done(err)
		}
	})
	return nil
}

// Status derives the display state of one table
func (s *Session) Status(table int) (models.TableStatus, error) {
	if err := s.checkTable(table); err != nil {
		return models.TableStatus{}, err
	}
	return s.aggregator.DeriveStatus(table), nil
}

// Statuses derives every table on the floor. Safe to call from any
// goroutine.
func (s *Session) Statuses() []models.TableStatus {
	statuses := s.aggregator.DeriveAll(s.tableCount)
	s.metrics.SetTableCounts(tables.CountByState(statuses))
	return statuses
}

// Lines returns the table's lines and total. Safe to call from any goroutine.
func (s *Session) Lines(table int) ([]models.OrderLine, int64) {
	return s.orders.View(table)
}

// Menu returns the catalog items in backend order. Safe to call from any
// goroutine.
func (s *Session) Menu() []models.MenuItem {
	return s.catalog.ListItems()
}

// MenuByCategory groups the catalog by category
func (s *Session) MenuByCategory() map[string][]models.MenuItem {
	return s.catalog.ByCategory()
}

// Summary reports the best seller and the sales taken so far
func (s *Session) Summary() tables.Summary {
	return tables.Summarize(s.settlement.Ledger().Receipts(), s.orders)
}

// SyncStatus reports the sync engine state
func (s *Session) SyncStatus() syncer.Status {
	return s.engine.Status()
}

// Notices returns recent operator messages, oldest first
func (s *Session) Notices() []Notice {
	return append([]Notice(nil), s.notices...)
}

func (s *Session) checkTable(table int) error {
	if table < 1 || table > s.tableCount {
		return &models.NotFoundError{Kind: "table", Key: strconv.Itoa(table)}
	}
	return nil
}

func (s *Session) onSyncResult(r syncer.Result) {
	if r.Err != nil {
		s.notify(true, "table sync failed: %v", r.Err)
	}
}

func (s *Session) onSettlementNotice(n settlement.Notice) {
	if n.Err != nil {
		s.notify(true, "table %d: backend not updated after settlement: %v", n.Receipt.TableNumber, n.Err)
		return
	}
	s.engine.Invalidate()
	s.engine.Refresh()
}

func (s *Session) notify(isError bool, format string, args ...interface{}) {
	s.notices = append(s.notices, Notice{
		At:      time.Now(),
		Message: fmt.Sprintf(format, args...),
		IsError: isError,
	})
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}
