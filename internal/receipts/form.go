package receipts

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockdesk/stockdesk/internal/backend"
)

// ItemDraft is an unsaved line-item row. Key identifies the row while it is
// being edited; it is generated locally and never sent to the backend.
type ItemDraft struct {
	Key        string
	ResourceID string
	UnitID     string
	Quantity   string
}

// Form carries the receipt editor state between renders.
type Form struct {
	ID       int64
	Number   string
	Date     string
	Items    []ItemDraft
	Warnings []string
}

// NewForm returns the blank create form. The date preselects today and one
// empty row is ready for input.
func NewForm(now time.Time) Form {
	return Form{
		Date:  backend.NewDate(now).String(),
		Items: []ItemDraft{newDraft()},
	}
}

// FormFromReceipt seeds the edit form from a stored document.
func FormFromReceipt(receipt Receipt) Form {
	form := Form{
		ID:     receipt.ID,
		Number: receipt.Number,
		Date:   receipt.Date.String(),
	}
	for _, item := range receipt.Items {
		form.Items = append(form.Items, ItemDraft{
			Key:        uuid.NewString(),
			ResourceID: strconv.FormatInt(item.ResourceID, 10),
			UnitID:     strconv.FormatInt(item.UnitID, 10),
			Quantity:   strconv.FormatFloat(item.Quantity, 'f', -1, 64),
		})
	}
	if len(form.Items) == 0 {
		form.Items = []ItemDraft{newDraft()}
	}
	return form
}

// ParseForm rebuilds the editor state from a submitted form. Row fields
// arrive as parallel slices ordered by row position.
func ParseForm(r *http.Request) Form {
	form := Form{
		Number: strings.TrimSpace(r.PostFormValue("number")),
		Date:   strings.TrimSpace(r.PostFormValue("date")),
	}
	if id, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64); err == nil {
		form.ID = id
	}

	keys := r.PostForm["item_key"]
	resourceIDs := r.PostForm["item_resource_id"]
	unitIDs := r.PostForm["item_unit_id"]
	quantities := r.PostForm["item_quantity"]
	for i, key := range keys {
		draft := ItemDraft{Key: key}
		if i < len(resourceIDs) {
			draft.ResourceID = strings.TrimSpace(resourceIDs[i])
		}
		if i < len(unitIDs) {
			draft.UnitID = strings.TrimSpace(unitIDs[i])
		}
		if i < len(quantities) {
			draft.Quantity = strings.TrimSpace(quantities[i])
		}
		form.Items = append(form.Items, draft)
	}
	return form
}

// AddItem appends a fresh empty row.
func (f *Form) AddItem() {
	f.Items = append(f.Items, newDraft())
}

// RemoveItem drops the row with the given key.
func (f *Form) RemoveItem(key string) {
	kept := f.Items[:0]
	for _, item := range f.Items {
		if item.Key != key {
			kept = append(kept, item)
		}
	}
	f.Items = kept
}

// Payload coerces the drafts into the wire shape. Rows left entirely blank
// are dropped; partially filled or invalid rows block submission with a
// warning naming the row. A non-empty warning list means the payload must
// not be sent.
func (f *Form) Payload() (Payload, []string) {
	var warnings []string

	if f.Number == "" {
		warnings = append(warnings, "Number is required")
	}

	date, err := backend.ParseDate(f.Date)
	if f.Date == "" || err != nil {
		warnings = append(warnings, "Date is required")
	}

	payload := Payload{Number: f.Number, Date: date}
	row := 0
	for _, draft := range f.Items {
		if draft.blank() {
			continue
		}
		row++
		item, itemWarnings := draft.coerce(row)
		if len(itemWarnings) > 0 {
			warnings = append(warnings, itemWarnings...)
			continue
		}
		payload.Items = append(payload.Items, item)
	}

	if row == 0 {
		warnings = append(warnings, "At least 1 item is required")
	}

	if len(warnings) > 0 {
		return Payload{}, warnings
	}
	return payload, nil
}

func (d ItemDraft) blank() bool {
	return d.ResourceID == "" && d.UnitID == "" && d.Quantity == ""
}

func (d ItemDraft) coerce(row int) (Item, []string) {
	var warnings []string

	resourceID, err := strconv.ParseInt(d.ResourceID, 10, 64)
	if err != nil || resourceID <= 0 {
		warnings = append(warnings, fmt.Sprintf("Item #%d: Resource is required", row))
	}
	unitID, err := strconv.ParseInt(d.UnitID, 10, 64)
	if err != nil || unitID <= 0 {
		warnings = append(warnings, fmt.Sprintf("Item #%d: Unit is required", row))
	}
	quantity, err := strconv.ParseFloat(d.Quantity, 64)
	if err != nil || quantity <= 0 {
		warnings = append(warnings, fmt.Sprintf("Item #%d: Quantity must be greater than zero", row))
	}

	if len(warnings) > 0 {
		return Item{}, warnings
	}
	return Item{ResourceID: resourceID, UnitID: unitID, Quantity: quantity}, nil
}

func newDraft() ItemDraft {
	return ItemDraft{Key: uuid.NewString()}
}
