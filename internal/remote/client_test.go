package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"maitred/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", 2*time.Second, zap.NewNop())
}

func TestListMenu(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/menu", r.URL.Path)
		io.WriteString(w, `{"menuItems":[
			{"_id":"m1","name":"김치찌개","price":12000,"category":"stew","imageUrl":"/img/kimchi.png"},
			{"_id":"m2","name":"삼겹살","price":13000,"available":false},
			{"name":"no id","price":1},
			{"_id":"m3","name":"bad price","price":"free"},
			"not an object"
		]}`)
	})

	items, err := client.ListMenu(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.MenuItem{ID: "m1", Name: "김치찌개", Price: 12000, Category: "stew", Available: true}, items[0])
	assert.False(t, items[1].Available)
}

func TestListMenuParseError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"items":[]}`)
	})

	_, err := client.ListMenu(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrParse))
}

func TestFetchTablesStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.FetchTables(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFetch))

	var fetchErr *models.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)
}

func TestFetchTablesTransportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second, zap.NewNop())

	_, err := client.FetchTables(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFetch))
}

func TestFetchTablesReturnsRawEntries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"tables":[{"tableNum":1,"lastOrder":[]},42]}`)
	})

	tables, err := client.FetchTables(context.Background())
	require.NoError(t, err)
	assert.Len(t, tables, 2)
}

func TestSubmitOrder(t *testing.T) {
	var got NewOrderRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/table/new_order", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("tableNum"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	lines := []models.OrderLine{
		{TableNumber: 3, MenuItemID: "m1", ItemName: "김치찌개", Quantity: 2, UnitPrice: 12000},
	}
	require.NoError(t, client.SubmitOrder(context.Background(), 3, lines, 24000))

	assert.Equal(t, int64(24000), got.TotalPrice)
	require.Len(t, got.OrderItems, 1)
	assert.Equal(t, OrderItem{MenuID: "m1", Name: "김치찌개", Quantity: 2, Price: 12000}, got.OrderItems[0])
}

func TestClearTable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "7", r.URL.Query().Get("tableNum"))

		var req ClearRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 7, req.TableNum)

		io.WriteString(w, `{"success":true,"message":"table 7 cleared"}`)
	})

	result, err := client.ClearTable(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "table 7 cleared", result.Message)
}

func TestRequestHonoursContext(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchTables(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFetch))
}

func TestWebsocketURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8081/ws", WebsocketURL("http://localhost:8081/"))
	assert.Equal(t, "wss://pos.example.com/base/ws", WebsocketURL("https://pos.example.com/base"))
}

func TestWatcherDeliversTableEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"tables_changed","tableNum":4}`))
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	events := make(chan TableEvent, 1)
	watcher := NewWatcher(server.URL, func(event TableEvent) { events <- event }, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	select {
	case event := <-events:
		assert.Equal(t, 4, event.TableNum)
	case <-time.After(2 * time.Second):
		t.Fatal("no table event received")
	}
}
