package receipts

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewFormPreselectsToday(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)
	form := NewForm(now)

	require.Equal(t, "2026-03-14", form.Date)
	require.Len(t, form.Items, 1)
	require.NotEmpty(t, form.Items[0].Key)
}

func TestPayloadCoercesValidRows(t *testing.T) {
	form := Form{
		Number: "RCP-001",
		Date:   "2026-03-14",
		Items: []ItemDraft{
			{Key: "a", ResourceID: "10", UnitID: "20", Quantity: "2.5"},
			{Key: "b", ResourceID: "11", UnitID: "21", Quantity: "1"},
		},
	}

	payload, warnings := form.Payload()
	require.Empty(t, warnings)
	require.Equal(t, "RCP-001", payload.Number)
	require.Equal(t, "2026-03-14", payload.Date.String())
	require.Equal(t, []Item{
		{ResourceID: 10, UnitID: 20, Quantity: 2.5},
		{ResourceID: 11, UnitID: 21, Quantity: 1},
	}, payload.Items)
}

func TestPayloadDropsBlankRows(t *testing.T) {
	form := Form{
		Number: "RCP-001",
		Date:   "2026-03-14",
		Items: []ItemDraft{
			{Key: "a"},
			{Key: "b", ResourceID: "10", UnitID: "20", Quantity: "3"},
			{Key: "c"},
		},
	}

	payload, warnings := form.Payload()
	require.Empty(t, warnings)
	require.Len(t, payload.Items, 1)
}

func TestPayloadRequiresAtLeastOneItem(t *testing.T) {
	form := Form{
		Number: "RCP-001",
		Date:   "2026-03-14",
		Items:  []ItemDraft{{Key: "a"}},
	}

	_, warnings := form.Payload()
	require.Contains(t, warnings, "At least 1 item is required")
}

func TestPayloadNamesInvalidRows(t *testing.T) {
	form := Form{
		Number: "RCP-001",
		Date:   "2026-03-14",
		Items: []ItemDraft{
			{Key: "a", ResourceID: "10", UnitID: "20", Quantity: "5"},
			{Key: "b", ResourceID: "", UnitID: "20", Quantity: "-1"},
		},
	}

	_, warnings := form.Payload()
	require.Contains(t, warnings, "Item #2: Resource is required")
	require.Contains(t, warnings, "Item #2: Quantity must be greater than zero")
	require.NotContains(t, warnings, "Item #1: Resource is required")
}

func TestPayloadRowNumberingSkipsBlanks(t *testing.T) {
	form := Form{
		Number: "RCP-001",
		Date:   "2026-03-14",
		Items: []ItemDraft{
			{Key: "a"},
			{Key: "b", ResourceID: "0", UnitID: "20", Quantity: "1"},
		},
	}

	_, warnings := form.Payload()
	require.Contains(t, warnings, "Item #1: Resource is required")
}

func TestPayloadRequiresNumberAndDate(t *testing.T) {
	form := Form{
		Items: []ItemDraft{{Key: "a", ResourceID: "10", UnitID: "20", Quantity: "1"}},
	}

	_, warnings := form.Payload()
	require.Contains(t, warnings, "Number is required")
	require.Contains(t, warnings, "Date is required")
}

func TestParseFormReassemblesRows(t *testing.T) {
	values := url.Values{
		"number":           {"RCP-002"},
		"date":             {"2026-03-15"},
		"item_key":         {"k1", "k2"},
		"item_resource_id": {"10", "11"},
		"item_unit_id":     {"20", "21"},
		"item_quantity":    {"1.5", " 2 "},
	}
	req := httptest.NewRequest(http.MethodPost, "/receipts", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, req.ParseForm())

	form := ParseForm(req)
	require.Equal(t, "RCP-002", form.Number)
	require.Equal(t, "2026-03-15", form.Date)
	require.Len(t, form.Items, 2)
	require.Equal(t, "k2", form.Items[1].Key)
	require.Equal(t, "2", form.Items[1].Quantity)
}

func TestRemoveItemDropsOnlyMatchingRow(t *testing.T) {
	form := Form{Items: []ItemDraft{{Key: "a"}, {Key: "b"}, {Key: "c"}}}
	form.RemoveItem("b")

	require.Len(t, form.Items, 2)
	require.Equal(t, "a", form.Items[0].Key)
	require.Equal(t, "c", form.Items[1].Key)
}
