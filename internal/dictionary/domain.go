package dictionary

// EntityState is the soft-delete flag carried by every reference entity.
type EntityState string

const (
	StateActive   EntityState = "ACTIVE"
	StateArchived EntityState = "ARCHIVED"
)

// StateFilter is the list-screen state selector.
type StateFilter string

const (
	FilterAll      StateFilter = "ALL"
	FilterActive   StateFilter = "ACTIVE"
	FilterArchived StateFilter = "ARCHIVED"
)

// APIState maps the screen filter to the backend's optional state param.
// ALL (or anything unrecognized) means no constraint.
func (f StateFilter) APIState() *EntityState {
	switch f {
	case FilterActive:
		s := StateActive
		return &s
	case FilterArchived:
		s := StateArchived
		return &s
	default:
		return nil
	}
}

// Entry is a reference entity row: units and resources carry id/name/state,
// clients additionally an optional address.
type Entry struct {
	ID      int64       `json:"id"`
	Name    string      `json:"name"`
	Address *string     `json:"address,omitempty"`
	State   EntityState `json:"state"`
}

// Payload is the write shape for create and update.
type Payload struct {
	Name    string  `json:"name" validate:"required"`
	Address *string `json:"address,omitempty"`
}
