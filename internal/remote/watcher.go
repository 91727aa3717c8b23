package remote

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Watcher subscribes to the backend's change feed and calls OnChange for
// every table event. It reconnects after a fixed delay when the feed drops.
type Watcher struct {
	URL            string
	ReconnectDelay time.Duration
	OnChange       func(TableEvent)

	dialer *websocket.Dialer
	log    *zap.Logger
}

// NewWatcher creates a watcher for the backend at baseURL
func NewWatcher(baseURL string, onChange func(TableEvent), log *zap.Logger) *Watcher {
	return &Watcher{
		URL:            WebsocketURL(baseURL),
		ReconnectDelay: 5 * time.Second,
		OnChange:       onChange,
		dialer:         &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:            log,
	}
}

// WebsocketURL maps the HTTP base URL to the backend's websocket endpoint.
func WebsocketURL(baseURL string) string {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	return u.String()
}

// Run keeps the subscription alive until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) {
	for {
		if err := w.listen(ctx); err != nil && ctx.Err() == nil {
			w.log.Warn("Change feed disconnected", zap.String("url", w.URL), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.ReconnectDelay):
		}
	}
}

func (w *Watcher) listen(ctx context.Context) error {
	conn, _, err := w.dialer.DialContext(ctx, w.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	w.log.Info("Subscribed to change feed", zap.String("url", w.URL))

	// Unblock ReadMessage when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event TableEvent
		if err := json.Unmarshal(message, &event); err != nil {
			w.log.Debug("Ignoring malformed change event", zap.Error(err))
			continue
		}
		if event.Type == EventTablesChanged && w.OnChange != nil {
			w.OnChange(event)
		}
	}
}
