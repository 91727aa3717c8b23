package orders

import (
	"sort"
	"sync"

	"maitred/internal/models"
)

// PriceBook is the catalog view the store needs when it creates a line.
type PriceBook interface {
	Lookup(id string) (models.MenuItem, bool)
}

// Store maps table numbers to their order lines. Lines keep insertion order
// and there is at most one line per (table, item).
//
// Mutations are expected to come from a single goroutine. The lock only makes
// concurrent readers see either the state before or after a mutation.
type Store struct {
	prices PriceBook

	mu     sync.RWMutex
	tables map[int][]models.OrderLine
}

// NewStore creates an empty order store
func NewStore(prices PriceBook) *Store {
	return &Store{
		prices: prices,
		tables: make(map[int][]models.OrderLine),
	}
}

// AddItem adds one unit of itemID to the table. An existing line is
// incremented; otherwise a new line is created with the catalog name and
// price. When the catalog has no entry the line falls back to fallbackPrice
// and uses the id as its name.
func (s *Store) AddItem(table int, itemID string, fallbackPrice int64) models.OrderLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.tables[table]
	if i := indexOf(lines, itemID); i >= 0 {
		lines[i].Quantity++
		return lines[i]
	}

	line := models.OrderLine{
		TableNumber: table,
		MenuItemID:  itemID,
		ItemName:    itemID,
		Quantity:    1,
		UnitPrice:   fallbackPrice,
	}
	if item, ok := s.prices.Lookup(itemID); ok {
		line.ItemName = item.Name
		line.UnitPrice = item.Price
	}

	s.tables[table] = append(lines, line)
	return line
}

// AddCatalogItem is AddItem without the price fallback: it refuses items the
// catalog does not know.
func (s *Store) AddCatalogItem(table int, itemID string) (models.OrderLine, error) {
	if _, ok := s.prices.Lookup(itemID); !ok {
		s.mu.RLock()
		i := indexOf(s.tables[table], itemID)
		s.mu.RUnlock()
		// Lines already on the table keep their captured price.
		if i < 0 {
			return models.OrderLine{}, &models.NotFoundError{Kind: "menu item", Key: itemID}
		}
	}
	return s.AddItem(table, itemID, 0), nil
}

// AdjustQuantity applies delta to a line, addressed by OrderLine.Key. A resulting quantity of zero or
// less removes the line. Unknown lines are ignored.
func (s *Store) AdjustQuantity(table int, itemID string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.tables[table]
	i := indexOf(lines, itemID)
	if i < 0 {
		return
	}

	lines[i].Quantity += delta
	if lines[i].Quantity > 0 {
		return
	}

	lines = append(lines[:i], lines[i+1:]...)
	if len(lines) == 0 {
		delete(s.tables, table)
		return
	}
	s.tables[table] = lines
}

// ClearTable removes every line of the table and returns them.
func (s *Store) ClearTable(table int) []models.OrderLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.tables[table]
	delete(s.tables, table)
	return removed
}

// LinesFor returns a copy of the table's lines in insertion order
func (s *Store) LinesFor(table int) []models.OrderLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.OrderLine(nil), s.tables[table]...)
}

// TotalFor returns the sum of quantity * unit price over the table's lines.
// Every total shown or sent anywhere comes from here.
func (s *Store) TotalFor(table int) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return total(s.tables[table])
}

// View returns the table's lines and their total from a single snapshot.
func (s *Store) View(table int) ([]models.OrderLine, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := s.tables[table]
	return append([]models.OrderLine(nil), lines...), total(lines)
}

// ReplaceAll swaps the whole store for lines, grouped by table in the order
// given. Lines that repeat a (table, item) key are merged into the first one;
// lines with a non-positive quantity are skipped.
func (s *Store) ReplaceAll(lines []models.OrderLine) {
	tables := make(map[int][]models.OrderLine)
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		existing := tables[line.TableNumber]
		if i := indexOf(existing, line.Key()); i >= 0 {
			existing[i].Quantity += line.Quantity
			continue
		}
		tables[line.TableNumber] = append(existing, line)
	}

	s.mu.Lock()
	s.tables = tables
	s.mu.Unlock()
}

// Tables returns the numbers of tables holding at least one line, ascending.
func (s *Store) Tables() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	numbers := make([]int, 0, len(s.tables))
	for table := range s.tables {
		numbers = append(numbers, table)
	}
	sort.Ints(numbers)
	return numbers
}

// Snapshot returns a deep copy of the store
func (s *Store) Snapshot() map[int][]models.OrderLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[int][]models.OrderLine, len(s.tables))
	for table, lines := range s.tables {
		snapshot[table] = append([]models.OrderLine(nil), lines...)
	}
	return snapshot
}

// LineCount returns the number of lines across all tables
func (s *Store) LineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, lines := range s.tables {
		count += len(lines)
	}
	return count
}

func total(lines []models.OrderLine) int64 {
	var sum int64
	for _, line := range lines {
		sum += line.Subtotal()
	}
	return sum
}

// indexOf finds a line by its key. For lines carrying a menu id the key is
// the id itself.
func indexOf(lines []models.OrderLine, key string) int {
	for i, line := range lines {
		if line.Key() == key {
			return i
		}
	}
	return -1
}
