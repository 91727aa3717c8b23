package tui

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"maitred/internal/models"
	"maitred/internal/pos"
	"maitred/internal/receipt"
	"maitred/internal/remote"
)

type queue struct {
	tasks chan func()
}

func (q *queue) Post(fn func()) { q.tasks <- fn }

type fakeBackend struct{}

func (fakeBackend) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	return []models.MenuItem{
		{ID: "kimchi-jjigae", Name: "김치찌개", Price: 12000, Category: "stew", Available: true},
		{ID: "bibimbap", Name: "비빔밥", Price: 10000, Category: "rice", Available: true},
	}, nil
}

func (fakeBackend) FetchTables(ctx context.Context) ([]json.RawMessage, error) {
	return []json.RawMessage{}, nil
}

func (fakeBackend) SubmitOrder(ctx context.Context, table int, lines []models.OrderLine, total int64) error {
	return nil
}

func (fakeBackend) ClearTable(ctx context.Context, table int) (remote.ClearResult, error) {
	return remote.ClearResult{Success: true}, nil
}

type nopRenderer struct{}

func (nopRenderer) Render(r models.Receipt) (string, error) { return "mem://" + r.ID, nil }

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

// drain runs n dispatched tasks through Update, the way a running program would.
func drain(t *testing.T, m Model, q *queue, n int) Model {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case fn := <-q.tasks:
			next, _ := m.Update(taskMsg{fn: fn})
			m = next.(Model)
		case <-time.After(2 * time.Second):
			t.Fatalf("expected %d dispatched tasks, got %d", n, i)
		}
	}
	return m
}

func newTestModel(t *testing.T) (Model, *pos.Session, *queue) {
	t.Helper()
	q := &queue{tasks: make(chan func(), 32)}
	session := pos.NewSession(fakeBackend{}, nopRenderer{}, q, pos.Options{SyncInterval: time.Hour, RequestTimeout: time.Second}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		session.Stop()
		cancel()
	})

	m := NewModel(ctx, session, receipt.DefaultMoney)
	next, _ := m.Update(startMsg{})
	m = drain(t, next.(Model), q, 2)
	return m, session, q
}

func TestAddItemsThroughPicker(t *testing.T) {
	m, session, _ := newTestModel(t)

	// Table 2, add the first item of the picker twice. Categories sort
	// alphabetically, so rice (비빔밥) comes before stew (김치찌개).
	m = press(t, m, "right", "enter", "a", "enter", "a", "enter")
	assert.Equal(t, viewTable, m.view)
	assert.Equal(t, 2, m.table)

	lines, total := session.Lines(2)
	require.Len(t, lines, 1)
	assert.Equal(t, "비빔밥", lines[0].ItemName)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, int64(20000), total)

	m = press(t, m, "a", "down", "enter")
	lines, _ = session.Lines(2)
	require.Len(t, lines, 2)
	assert.Equal(t, "김치찌개", lines[1].ItemName)

	m = press(t, m, "-")
	lines, _ = session.Lines(2)
	assert.Equal(t, 1, lines[0].Quantity)

	assert.Contains(t, m.View(), "Table 2")
}

func TestReserveAndSettle(t *testing.T) {
	m, session, _ := newTestModel(t)

	m = press(t, m, "enter", "v")
	status, err := session.Status(1)
	require.NoError(t, err)
	assert.Equal(t, models.TableReserved, status.Status)

	m = press(t, m, "a", "enter", "p")
	assert.Empty(t, m.err)
	assert.Contains(t, m.status, "receipt saved to mem://")

	status, _ = session.Status(1)
	assert.Equal(t, models.TableEmpty, status.Status)
	assert.Equal(t, int64(10000), session.Summary().SettledSales)
}

func TestCancelAllNeedsConfirmation(t *testing.T) {
	m, session, q := newTestModel(t)

	m = press(t, m, "enter", "a", "enter", "x")
	assert.True(t, m.confirming)

	m = press(t, m, "n")
	assert.False(t, m.confirming)
	lines, _ := session.Lines(1)
	assert.Len(t, lines, 1)

	m = press(t, m, "x", "y")
	m = drain(t, m, q, 1)
	lines, _ = session.Lines(1)
	assert.Empty(t, lines)
}

func TestFloorNavigationAndSummary(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(t, m, "down", "down", "right")
	assert.Equal(t, 2*gridColumns+1, m.cursor)

	m = press(t, m, "s")
	assert.Equal(t, viewSummary, m.view)
	assert.Contains(t, m.View(), "Sales summary")

	m = press(t, m, "esc")
	assert.Equal(t, viewFloor, m.view)
	assert.Contains(t, m.View(), "Table 20")
}
