// Package api is the reference restaurant backend: the menu and table
// endpoints the POS talks to, plus a websocket feed of table changes.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"maitred/internal/database"
)

// Server handles the backend HTTP API
type Server struct {
	router *gin.Engine
	store  *database.Store
	hub    *Hub
	log    *zap.Logger
}

// NewServer creates a new backend server instance
func NewServer(store *database.Store, log *zap.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	server := &Server{
		router: router,
		store:  store,
		hub:    NewHub(log.Named("ws")),
		log:    log,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.hub.ServeWS)

	api := s.router.Group("/api")
	{
		// Menu
		api.GET("/menu", s.handleListMenu)
		api.POST("/menu", s.handleCreateMenuItem)
		api.PUT("/menu/:id", s.handleUpdateMenuItem)

		// Tables
		api.GET("/table", s.handleListTables)
		api.POST("/table/new_order", s.handleNewOrder)
		api.DELETE("/table", s.handleClearTable)
	}
}

// Router returns the Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Hub returns the websocket hub
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(); err != nil {
		s.log.Error("Database health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "message": "database connection failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": s.hub.Clients()})
}
