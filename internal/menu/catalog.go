package menu

import (
	"context"
	"fmt"
	"sync"

	"maitred/internal/models"

	"go.uber.org/zap"
)

// Source fetches the current menu from the backend.
type Source interface {
	ListMenu(ctx context.Context) ([]models.MenuItem, error)
}

// Catalog holds the sellable items. It is replaced wholesale on every
// successful refresh and left untouched when a refresh fails.
type Catalog struct {
	source Source
	log    *zap.Logger

	mu        sync.RWMutex
	items     []models.MenuItem
	byID      map[string]models.MenuItem
	byName    map[string]models.MenuItem
	listeners []func([]models.MenuItem)
}

// NewCatalog creates an empty catalog backed by source
func NewCatalog(source Source, log *zap.Logger) *Catalog {
	return &Catalog{
		source: source,
		log:    log,
		byID:   make(map[string]models.MenuItem),
		byName: make(map[string]models.MenuItem),
	}
}

// Refresh fetches the menu and swaps it in. There is no retry; the caller
// decides whether to try again.
func (c *Catalog) Refresh(ctx context.Context) error {
	items, err := c.source.ListMenu(ctx)
	if err != nil {
		c.log.Warn("Menu refresh failed, keeping previous catalog", zap.Error(err))
		return fmt.Errorf("refresh menu: %w", err)
	}

	c.Replace(items)
	return nil
}

// Fetch runs only the network half of Refresh. Callers that keep mutations on
// a single goroutine fetch elsewhere and hand the result to Replace.
func (c *Catalog) Fetch(ctx context.Context) ([]models.MenuItem, error) {
	items, err := c.source.ListMenu(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh menu: %w", err)
	}
	return items, nil
}

// Replace installs items as the new catalog and notifies listeners.
// Malformed entries and duplicate ids are dropped; the count of dropped
// entries is returned.
func (c *Catalog) Replace(items []models.MenuItem) int {
	kept := make([]models.MenuItem, 0, len(items))
	byID := make(map[string]models.MenuItem, len(items))
	byName := make(map[string]models.MenuItem, len(items))

	dropped := 0
	for _, item := range items {
		if err := models.ValidateMenuItem(&item); err != nil {
			c.log.Debug("Dropping menu item", zap.String("id", item.ID), zap.Error(err))
			dropped++
			continue
		}
		if _, exists := byID[item.ID]; exists {
			c.log.Debug("Dropping duplicate menu item", zap.String("id", item.ID))
			dropped++
			continue
		}
		kept = append(kept, item)
		byID[item.ID] = item
		if _, exists := byName[item.Name]; !exists {
			byName[item.Name] = item
		}
	}

	c.mu.Lock()
	c.items = kept
	c.byID = byID
	c.byName = byName
	listeners := append([]func([]models.MenuItem){}, c.listeners...)
	c.mu.Unlock()

	c.log.Info("Menu catalog replaced",
		zap.Int("items", len(kept)),
		zap.Int("dropped", dropped),
	)

	for _, fn := range listeners {
		fn(c.ListItems())
	}

	return dropped
}

// OnChange registers a listener invoked after every Replace.
func (c *Catalog) OnChange(fn func([]models.MenuItem)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// PriceOf returns the unit price of an item
func (c *Catalog) PriceOf(id string) (int64, bool) {
	item, ok := c.Lookup(id)
	return item.Price, ok
}

// Lookup returns an item by id
func (c *Catalog) Lookup(id string) (models.MenuItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.byID[id]
	return item, ok
}

// LookupByName returns the first item published under name
func (c *Catalog) LookupByName(name string) (models.MenuItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.byName[name]
	return item, ok
}

// ListItems returns the items in the order the backend published them.
func (c *Catalog) ListItems() []models.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.MenuItem(nil), c.items...)
}

// ByCategory groups items by category, keeping backend order within a group.
func (c *Catalog) ByCategory() map[string][]models.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	groups := make(map[string][]models.MenuItem)
	for _, item := range c.items {
		category := item.CategoryOrOther()
		groups[category] = append(groups[category], item)
	}
	return groups
}

// Len returns the number of items in the catalog
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
