package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"maitred/internal/models"

	"go.uber.org/zap"
)

// Client talks to the restaurant backend over HTTP/JSON
type Client struct {
	httpClient *http.Client
	BaseURL    string
	log        *zap.Logger
}

// NewClient creates a new API client. timeout bounds every request so a hung
// backend cannot leave a caller waiting forever.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		BaseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// CheckHealth checks if the API is up and running
func (c *Client) CheckHealth(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// ListMenu retrieves the current menu. Items missing an id, name or price are
// dropped; a body that is not a menu document is a ParseError.
func (c *Client) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	const op = "list menu"

	resp, err := c.do(ctx, http.MethodGet, "/api/menu", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body menuResponse
	if err := decode(resp.Body, &body); err != nil {
		return nil, &models.ParseError{Op: op, Err: err}
	}
	if body.MenuItems == nil {
		return nil, &models.ParseError{Op: op, Err: errors.New(`missing "menuItems" array`)}
	}

	items := make([]models.MenuItem, 0, len(body.MenuItems))
	for i, raw := range body.MenuItems {
		var record menuRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			c.log.Debug("Skipping undecodable menu item", zap.Int("index", i), zap.Error(err))
			continue
		}
		if record.ID == nil || record.Name == nil || record.Price == nil {
			c.log.Debug("Skipping menu item with missing fields", zap.Int("index", i))
			continue
		}
		item := models.MenuItem{
			ID:        *record.ID,
			Name:      *record.Name,
			Price:     *record.Price,
			Category:  record.Category,
			Available: true,
		}
		if record.Available != nil {
			item.Available = *record.Available
		}
		items = append(items, item)
	}

	return items, nil
}

// FetchTables retrieves the raw table snapshot. Individual tables are left
// undecoded so one bad entry cannot spoil the whole pull.
func (c *Client) FetchTables(ctx context.Context) ([]json.RawMessage, error) {
	const op = "list tables"

	resp, err := c.do(ctx, http.MethodGet, "/api/table", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body tablesResponse
	if err := decode(resp.Body, &body); err != nil {
		return nil, &models.ParseError{Op: op, Err: err}
	}
	if body.Tables == nil {
		return nil, &models.ParseError{Op: op, Err: errors.New(`missing "tables" array`)}
	}

	return body.Tables, nil
}

// SubmitOrder sends the table's full order to the backend
func (c *Client) SubmitOrder(ctx context.Context, table int, lines []models.OrderLine, total int64) error {
	req := NewOrderRequest{
		OrderItems: make([]OrderItem, 0, len(lines)),
		TotalPrice: total,
	}
	for _, line := range lines {
		req.OrderItems = append(req.OrderItems, OrderItem{
			MenuID:   line.MenuItemID,
			Name:     line.ItemName,
			Quantity: line.Quantity,
			Price:    line.UnitPrice,
		})
	}

	query := url.Values{"tableNum": {strconv.Itoa(table)}}
	resp, err := c.do(ctx, http.MethodPost, "/api/table/new_order", query, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.Debug("Order submitted", zap.Int("table", table), zap.Int("lines", len(lines)))
	return nil
}

// ClearTable asks the backend to drop the table's orders. A well-formed
// refusal comes back as a ClearResult with Success false, not as an error.
func (c *Client) ClearTable(ctx context.Context, table int) (ClearResult, error) {
	const op = "clear table"

	query := url.Values{"tableNum": {strconv.Itoa(table)}}
	resp, err := c.do(ctx, http.MethodDelete, "/api/table", query, ClearRequest{TableNum: table})
	if err != nil {
		return ClearResult{}, err
	}
	defer resp.Body.Close()

	var result ClearResult
	if err := decode(resp.Body, &result); err != nil {
		return ClearResult{}, &models.ParseError{Op: op, Err: err}
	}
	return result, nil
}

// do sends a request and returns the response when the status is 2xx.
// Transport failures and other statuses come back as FetchErrors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &models.FetchError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.FetchError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		c.log.Debug("Backend returned error status",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", data),
		)
		return nil, &models.FetchError{Op: op, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

func decode(r io.Reader, v interface{}) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
