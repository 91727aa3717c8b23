// Package receipt renders settled receipts.
package receipt

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"maitred/internal/models"
)

const (
	itemWidth   = 20
	qtyWidth    = 5
	amountWidth = 15
	ruleWidth   = itemWidth + qtyWidth + amountWidth + 2
)

// TextRenderer writes each receipt as a plain text file under dir.
type TextRenderer struct {
	dir   string
	money Money
	log   *zap.Logger
}

// NewTextRenderer creates a renderer writing into dir
func NewTextRenderer(dir string, money Money, log *zap.Logger) *TextRenderer {
	return &TextRenderer{dir: dir, money: money, log: log}
}

// FileName is the receipt's file name inside the output directory
func FileName(r models.Receipt) string {
	return fmt.Sprintf("Receipt_Table_%d_%s.txt", r.TableNumber, r.ID)
}

// Render writes the receipt and returns the file path
func (t *TextRenderer) Render(r models.Receipt) (string, error) {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create receipt directory: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Write(&buf, r); err != nil {
		return "", err
	}

	path := filepath.Join(t.dir, FileName(r))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write receipt: %w", err)
	}

	t.log.Info("Receipt saved", zap.String("path", path), zap.Int("table", r.TableNumber), zap.Int64("total", r.Total))
	return path, nil
}

// Write formats the receipt onto w
func (t *TextRenderer) Write(w io.Writer, r models.Receipt) error {
	rule := strings.Repeat("-", ruleWidth)

	var b strings.Builder
	b.WriteString("Restaurant Receipt\n")
	fmt.Fprintf(&b, "Date: %s\n", r.SettledAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Table: %d\n", r.TableNumber)
	fmt.Fprintf(&b, "Receipt: %s\n", r.ID)
	b.WriteString(rule + "\n")
	b.WriteString(row("Item", "Qty", "Price"))

	for _, line := range r.Lines {
		b.WriteString(row(line.ItemName, strconv.Itoa(line.Quantity), t.money.Format(line.Subtotal())))
	}

	b.WriteString(rule + "\n")
	b.WriteString(runewidth.FillLeft("Total: "+t.money.Format(r.Total), ruleWidth) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func row(item, qty, amount string) string {
	item = runewidth.Truncate(item, itemWidth, "…")
	return runewidth.FillRight(item, itemWidth) + " " +
		runewidth.FillLeft(qty, qtyWidth) + " " +
		runewidth.FillLeft(amount, amountWidth) + "\n"
}
