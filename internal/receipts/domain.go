package receipts

import "github.com/stockdesk/stockdesk/internal/backend"

// Item is one resource line on a receipt document.
type Item struct {
	ID         int64   `json:"id,omitempty"`
	ResourceID int64   `json:"resourceId"`
	UnitID     int64   `json:"unitId"`
	Quantity   float64 `json:"quantity"`
}

// Receipt is an inbound warehouse document.
type Receipt struct {
	ID     int64        `json:"id"`
	Number string       `json:"number"`
	Date   backend.Date `json:"date"`
	Items  []Item       `json:"items"`
}

// Payload is the write shape for create and update.
type Payload struct {
	Number string       `json:"number" validate:"required"`
	Date   backend.Date `json:"date"`
	Items  []Item       `json:"items" validate:"min=1"`
}

// Filters narrows the receipt list.
type Filters struct {
	From        backend.Date
	To          backend.Date
	Numbers     []string
	ResourceIDs []int64
	UnitIDs     []int64
}
