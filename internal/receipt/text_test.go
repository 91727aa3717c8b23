package receipt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"maitred/internal/models"
)

func sampleReceipt() models.Receipt {
	lines := []models.OrderLine{
		{TableNumber: 3, MenuItemID: "kimchi-jjigae", ItemName: "김치찌개", Quantity: 2, UnitPrice: 12000},
		{TableNumber: 3, MenuItemID: "bibimbap", ItemName: "비빔밥", Quantity: 1, UnitPrice: 10000},
	}
	return models.Receipt{
		ID:          "r-1",
		TableNumber: 3,
		Lines:       lines,
		Total:       34000,
		SettledAt:   time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC),
	}
}

func TestMoneyFormat(t *testing.T) {
	assert.Equal(t, "12000 원", DefaultMoney.Format(12000))
	assert.Equal(t, "12.50 USD", Money{Currency: "USD", Exponent: 2}.Format(1250))
	assert.Equal(t, "0.05", Money{Exponent: 2}.Format(5))
	assert.Equal(t, "0 원", DefaultMoney.Format(0))
}

func TestTextRendererWrite(t *testing.T) {
	r := NewTextRenderer(t.TempDir(), DefaultMoney, zap.NewNop())

	var b strings.Builder
	require.NoError(t, r.Write(&b, sampleReceipt()))
	out := b.String()

	assert.Contains(t, out, "Restaurant Receipt")
	assert.Contains(t, out, "Date: 2026-03-14 19:30:00")
	assert.Contains(t, out, "Table: 3")
	assert.Contains(t, out, "김치찌개")
	assert.Contains(t, out, "24000 원")
	assert.Contains(t, out, "Total: 34000 원")
}

func TestTextRendererRender(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "receipts")
	r := NewTextRenderer(dir, DefaultMoney, zap.NewNop())

	path, err := r.Render(sampleReceipt())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Receipt_Table_3_r-1.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "비빔밥")
}

func TestTextRendererRenderFailsOnBadDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	r := NewTextRenderer(file, DefaultMoney, zap.NewNop())
	_, err := r.Render(sampleReceipt())
	assert.Error(t, err)
}
