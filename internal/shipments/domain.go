package shipments

import "github.com/stockdesk/stockdesk/internal/backend"

// ShipmentState is the document lifecycle state. Shipments start as drafts;
// signing posts them to stock and revoking returns them to draft.
type ShipmentState string

const (
	StateDraft  ShipmentState = "DRAFT"
	StateSigned ShipmentState = "SIGNED"
)

// CanEdit reports whether the document contents may still change.
func (s ShipmentState) CanEdit() bool {
	return s == StateDraft
}

// CanSign reports whether the sign transition is available.
func (s ShipmentState) CanSign() bool {
	return s == StateDraft
}

// CanRevoke reports whether the revoke transition is available.
func (s ShipmentState) CanRevoke() bool {
	return s == StateSigned
}

// CanDelete reports whether the document may be removed. Signed shipments
// must be revoked first.
func (s ShipmentState) CanDelete() bool {
	return s == StateDraft
}

// Item is one resource line on a shipment document.
type Item struct {
	ID         int64   `json:"id,omitempty"`
	ResourceID int64   `json:"resourceId"`
	UnitID     int64   `json:"unitId"`
	Quantity   float64 `json:"quantity"`
}

// Shipment is an outbound warehouse document addressed to a client.
type Shipment struct {
	ID       int64         `json:"id"`
	Number   string        `json:"number"`
	ClientID int64         `json:"clientId"`
	Date     backend.Date  `json:"date"`
	State    ShipmentState `json:"state"`
	Items    []Item        `json:"items"`
}

// Payload is the write shape for create and update.
type Payload struct {
	Number   string       `json:"number" validate:"required"`
	ClientID int64        `json:"clientId" validate:"gt=0"`
	Date     backend.Date `json:"date"`
	Items    []Item       `json:"items" validate:"min=1"`
}

// Filters narrows the shipment list.
type Filters struct {
	DateFrom    backend.Date
	DateTo      backend.Date
	Numbers     []string
	ResourceIDs []int64
	UnitIDs     []int64
	ClientID    int64
	State       ShipmentState
}
