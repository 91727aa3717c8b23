package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"maitred/internal/models"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()
	db, err := Open("sqlite3", ":memory:")
	require.NoError(t, err)

	store := NewStore(db, zap.NewNop())
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSeedMenuOnce(t *testing.T) {
	store := setupTestDB(t)

	require.NoError(t, store.SeedMenu())
	require.NoError(t, store.SeedMenu())

	items, err := store.ListMenu()
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "김치찌개", items[0].Name)
	assert.Equal(t, int64(12000), items[0].Price)
	assert.Equal(t, "비빔밥", items[3].Name)
}

func TestUpdateMenuItem(t *testing.T) {
	store := setupTestDB(t)
	require.NoError(t, store.SeedMenu())

	price := int64(9000)
	available := false
	item, err := store.UpdateMenuItem("doenjang-jjigae", MenuPatch{Price: &price, Available: &available})
	require.NoError(t, err)
	assert.Equal(t, int64(9000), item.Price)
	assert.False(t, item.Available)
	assert.Equal(t, "된장찌개", item.Name)

	items, err := store.ListMenu()
	require.NoError(t, err)
	assert.Equal(t, int64(9000), items[2].Price)
	assert.False(t, items[2].Available)
}

func TestUpdateMissingMenuItem(t *testing.T) {
	store := setupTestDB(t)
	name := "떡볶이"
	_, err := store.UpdateMenuItem("tteokbokki", MenuPatch{Name: &name})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateMenuItemAppends(t *testing.T) {
	store := setupTestDB(t)
	require.NoError(t, store.SeedMenu())

	item, err := store.CreateMenuItem(MenuItemRecord{ID: "japchae", Name: "잡채", Price: 9000, Category: "side", Available: true})
	require.NoError(t, err)
	assert.Equal(t, 5, item.Position)

	items, err := store.ListMenu()
	require.NoError(t, err)
	assert.Equal(t, "잡채", items[4].Name)
}

func TestCreateMenuItemReportsCountFailure(t *testing.T) {
	store := setupTestDB(t)
	require.NoError(t, store.db.DropTable(&MenuItemRecord{}).Error)

	_, err := store.CreateMenuItem(MenuItemRecord{ID: "japchae", Name: "잡채", Price: 9000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to count menu items")
}

func TestSaveOrderReplacesTable(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.SaveOrder(3, StoredLines{{MenuID: "kimchi-jjigae", Name: "김치찌개", Quantity: 2, Price: 12000}}, 24000)
	require.NoError(t, err)
	_, err = store.SaveOrder(3, StoredLines{{MenuID: "bibimbap", Name: "비빔밥", Quantity: 1, Price: 10000}}, 10000)
	require.NoError(t, err)
	_, err = store.SaveOrder(1, StoredLines{{Name: "삼겹살", Quantity: 1, Price: 13000}}, 13000)
	require.NoError(t, err)

	tables, err := store.ListTables()
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, 1, tables[0].TableNum)
	assert.Equal(t, 3, tables[1].TableNum)
	require.Len(t, tables[1].Lines, 1)
	assert.Equal(t, "비빔밥", tables[1].Lines[0].Name)
	assert.Equal(t, int64(10000), tables[1].TotalPrice)
}

func TestClearTable(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.SaveOrder(2, StoredLines{{Name: "비빔밥", Quantity: 1, Price: 10000}}, 10000)
	require.NoError(t, err)

	removed, err := store.ClearTable(2)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.ClearTable(2)
	require.NoError(t, err)
	assert.False(t, removed)

	tables, err := store.ListTables()
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestSaveEmptyOrderClearsTable(t *testing.T) {
	store := setupTestDB(t)

	_, err := store.SaveOrder(4, StoredLines{{Name: "비빔밥", Quantity: 1, Price: 10000}}, 10000)
	require.NoError(t, err)
	_, err = store.SaveOrder(4, nil, 0)
	require.NoError(t, err)

	tables, err := store.ListTables()
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestStoredLinesScan(t *testing.T) {
	var lines StoredLines
	require.NoError(t, lines.Scan([]byte(`[{"name":"a","quantity":1,"price":5}]`)))
	assert.Len(t, lines, 1)

	require.NoError(t, lines.Scan(nil))
	assert.Empty(t, lines)

	assert.Error(t, lines.Scan(42))
}
