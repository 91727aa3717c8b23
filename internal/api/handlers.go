package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"maitred/internal/database"
	"maitred/internal/models"
	"maitred/internal/remote"
)

type menuItemJSON struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Category  string `json:"category"`
	Available bool   `json:"available"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

type tableJSON struct {
	TableNum  int                `json:"tableNum"`
	LastOrder []remote.OrderItem `json:"lastOrder"`
}

type createMenuItemRequest struct {
	ID        string `json:"_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Price     int64  `json:"price"`
	Category  string `json:"category"`
	Available *bool  `json:"available"`
	ImageURL  string `json:"imageUrl"`
}

func toMenuJSON(item database.MenuItemRecord) menuItemJSON {
	return menuItemJSON{
		ID:        item.ID,
		Name:      item.Name,
		Price:     item.Price,
		Category:  item.Category,
		Available: item.Available,
		ImageURL:  item.ImageURL,
	}
}

func (s *Server) handleListMenu(c *gin.Context) {
	items, err := s.store.ListMenu()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]menuItemJSON, 0, len(items))
	for _, item := range items {
		out = append(out, toMenuJSON(item))
	}
	c.JSON(http.StatusOK, gin.H{"menuItems": out})
}

func (s *Server) handleCreateMenuItem(c *gin.Context) {
	var req createMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must not be negative"})
		return
	}

	record := database.MenuItemRecord{
		ID:        req.ID,
		Name:      req.Name,
		Price:     req.Price,
		Category:  req.Category,
		Available: req.Available == nil || *req.Available,
		ImageURL:  req.ImageURL,
	}
	item, err := s.store.CreateMenuItem(record)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toMenuJSON(item))
}

func (s *Server) handleUpdateMenuItem(c *gin.Context) {
	var patch database.MenuPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if patch.Price != nil && *patch.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must not be negative"})
		return
	}
	if patch.Name != nil && *patch.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must not be empty"})
		return
	}

	item, err := s.store.UpdateMenuItem(c.Param("id"), patch)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Menu item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toMenuJSON(item))
}

func (s *Server) handleListTables(c *gin.Context) {
	records, err := s.store.ListTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	tables := make([]tableJSON, 0, len(records))
	for _, record := range records {
		table := tableJSON{TableNum: record.TableNum, LastOrder: make([]remote.OrderItem, 0, len(record.Lines))}
		for _, line := range record.Lines {
			table.LastOrder = append(table.LastOrder, remote.OrderItem{
				MenuID:   line.MenuID,
				Name:     line.Name,
				Quantity: line.Quantity,
				Price:    line.Price,
			})
		}
		tables = append(tables, table)
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

func (s *Server) handleNewOrder(c *gin.Context) {
	table, ok := tableParam(c.Query("tableNum"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tableNum must be a positive integer"})
		return
	}

	var req remote.NewOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines := make(database.StoredLines, 0, len(req.OrderItems))
	var total int64
	for _, item := range req.OrderItems {
		if item.Name == "" || item.Quantity <= 0 || item.Price < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order items need a name, a positive quantity and a price"})
			return
		}
		lines = append(lines, database.StoredLine{
			MenuID:   item.MenuID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
		total += int64(item.Quantity) * item.Price
	}
	if total != req.TotalPrice {
		s.log.Warn("Order total does not match its lines, using computed total",
			zap.Int("table", table),
			zap.Int64("sent", req.TotalPrice),
			zap.Int64("computed", total),
		)
	}

	if _, err := s.store.SaveOrder(table, lines, total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.hub.Broadcast(remote.TableEvent{Type: remote.EventTablesChanged, TableNum: table})

	c.JSON(http.StatusCreated, gin.H{"success": true, "tableNum": table, "totalPrice": total})
}

func (s *Server) handleClearTable(c *gin.Context) {
	table, ok := tableParam(c.Query("tableNum"))
	if !ok {
		var req remote.ClearRequest
		if err := c.ShouldBindJSON(&req); err == nil && req.TableNum > 0 {
			table, ok = req.TableNum, true
		}
	}
	if !ok {
		c.JSON(http.StatusBadRequest, remote.ClearResult{Success: false, Message: "tableNum must be a positive integer"})
		return
	}

	removed, err := s.store.ClearTable(table)
	if err != nil {
		c.JSON(http.StatusInternalServerError, remote.ClearResult{Success: false, Message: err.Error()})
		return
	}

	message := "table cleared"
	if !removed {
		message = "table had no orders"
	} else {
		s.hub.Broadcast(remote.TableEvent{Type: remote.EventTablesChanged, TableNum: table})
	}
	c.JSON(http.StatusOK, remote.ClearResult{Success: true, Message: message})
}

func tableParam(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
