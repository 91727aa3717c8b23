package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"maitred/internal/database"
	"maitred/internal/models"
	"maitred/internal/remote"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	store := database.NewStore(db, zap.NewNop())
	require.NoError(t, store.Migrate())
	require.NoError(t, store.SeedMenu())

	server := NewServer(store, zap.NewNop())
	t.Cleanup(func() {
		server.Hub().Close()
		store.Close()
	})
	return server
}

func do(t *testing.T, server *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)
	w := do(t, server, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestListMenu(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, http.MethodGet, "/api/menu", "")
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		MenuItems []map[string]interface{} `json:"menuItems"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.MenuItems, 4)

	for _, item := range response.MenuItems {
		assert.Contains(t, item, "_id")
		assert.Contains(t, item, "name")
		assert.Contains(t, item, "price")
		assert.Contains(t, item, "category")
	}
	assert.Equal(t, "김치찌개", response.MenuItems[0]["name"])
}

func TestUpdateMenuItem(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, http.MethodPut, "/api/menu/bibimbap", `{"price":11000}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price":11000`)

	w = do(t, server, http.MethodPut, "/api/menu/tteokbokki", `{"price":5000}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, server, http.MethodPut, "/api/menu/bibimbap", `{"price":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateMenuItem(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, http.MethodPost, "/api/menu", `{"_id":"japchae","name":"잡채","price":9000,"category":"side"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"available":true`)

	w = do(t, server, http.MethodPost, "/api/menu", `{"name":"no id"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderLifecycle(t *testing.T) {
	server := newTestServer(t)

	body := `{"orderItems":[{"menuId":"kimchi-jjigae","name":"김치찌개","quantity":2,"price":12000}],"totalPrice":24000}`
	w := do(t, server, http.MethodPost, "/api/table/new_order?tableNum=3", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, server, http.MethodGet, "/api/table", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"tables":[{"tableNum":3,"lastOrder":[{"menuId":"kimchi-jjigae","name":"김치찌개","quantity":2,"price":12000}]}]}`,
		w.Body.String(),
	)

	w = do(t, server, http.MethodDelete, "/api/table?tableNum=3", `{"tableNum":3}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"table cleared"}`, w.Body.String())

	w = do(t, server, http.MethodDelete, "/api/table", `{"tableNum":3}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"table had no orders"}`, w.Body.String())

	w = do(t, server, http.MethodGet, "/api/table", "")
	assert.JSONEq(t, `{"tables":[]}`, w.Body.String())
}

func TestNewOrderValidation(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, http.MethodPost, "/api/table/new_order?tableNum=zero", `{"orderItems":[],"totalPrice":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, server, http.MethodPost, "/api/table/new_order?tableNum=1", `{"orderItems":[{"name":"x","quantity":0,"price":1}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, server, http.MethodDelete, "/api/table", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestClientAgainstServer(t *testing.T) {
	server := newTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	client := remote.NewClient(ts.URL+"/", time.Second, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, client.CheckHealth(ctx))

	menu, err := client.ListMenu(ctx)
	require.NoError(t, err)
	require.Len(t, menu, 4)
	assert.Equal(t, models.MenuItem{ID: "samgyeopsal", Name: "삼겹살", Price: 13000, Category: "grill", Available: true}, menu[1])

	lines := []models.OrderLine{{TableNumber: 5, MenuItemID: "bibimbap", ItemName: "비빔밥", Quantity: 1, UnitPrice: 10000}}
	require.NoError(t, client.SubmitOrder(ctx, 5, lines, 10000))

	tables, err := client.FetchTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Contains(t, string(tables[0]), `"tableNum":5`)

	result, err := client.ClearTable(ctx, 5)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestWebsocketBroadcastsTableChanges(t *testing.T) {
	server := newTestServer(t)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(remote.WebsocketURL(ts.URL), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return server.Hub().Clients() == 1 }, time.Second, 10*time.Millisecond)

	body := `{"orderItems":[{"name":"된장찌개","quantity":1,"price":8000}],"totalPrice":8000}`
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/table/new_order?tableNum=7", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev remote.TableEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, remote.TableEvent{Type: remote.EventTablesChanged, TableNum: 7}, ev)
}
