package remote

import "encoding/json"

// Wire shapes of the backend API. Optional and sometimes-missing fields are
// pointers so absence can be told apart from zero.

type menuResponse struct {
	MenuItems []json.RawMessage `json:"menuItems"`
}

type menuRecord struct {
	ID        *string `json:"_id"`
	Name      *string `json:"name"`
	Price     *int64  `json:"price"`
	Category  string  `json:"category"`
	Available *bool   `json:"available"`
}

type tablesResponse struct {
	Tables []json.RawMessage `json:"tables"`
}

// TableRecord is one table of the order snapshot as sent by the backend.
type TableRecord struct {
	TableNum  *int              `json:"tableNum"`
	LastOrder []json.RawMessage `json:"lastOrder"`
}

// LineRecord is one order line inside a TableRecord.
type LineRecord struct {
	MenuID   *string `json:"menuId"`
	Name     *string `json:"name"`
	Quantity *int    `json:"quantity"`
	Price    *int64  `json:"price"`
}

// OrderItem is one line of an outbound order submission.
type OrderItem struct {
	MenuID   string `json:"menuId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// NewOrderRequest is the body of POST api/table/new_order.
type NewOrderRequest struct {
	OrderItems []OrderItem `json:"orderItems"`
	TotalPrice int64       `json:"totalPrice"`
}

// ClearRequest is the body of DELETE api/table.
type ClearRequest struct {
	TableNum int `json:"tableNum"`
}

// ClearResult is the backend's answer to a table clear.
type ClearResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TableEvent is pushed over the websocket when a table changes on the backend.
type TableEvent struct {
	Type     string `json:"type"`
	TableNum int    `json:"tableNum,omitempty"`
}

// EventTablesChanged is the only event type the backend emits today.
const EventTablesChanged = "tables_changed"
