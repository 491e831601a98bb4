package balances

// Balance is a stock position the warehouse backend reports per
// resource and unit pair. The backend joins the dictionary names in.
type Balance struct {
	ID           int64   `json:"id"`
	ResourceID   int64   `json:"resourceId"`
	ResourceName string  `json:"resourceName"`
	UnitID       int64   `json:"unitId"`
	UnitName     string  `json:"unitName"`
	Amount       float64 `json:"amount"`
}

// Filters narrows the balance list by resource and unit.
type Filters struct {
	ResourceIDs []int64
	UnitIDs     []int64
}
