package balances

import (
	"context"

	"github.com/stockdesk/stockdesk/internal/backend"
)

// Repository is the backend surface the balances screen needs.
type Repository interface {
	List(ctx context.Context, filters Filters) ([]Balance, error)
}

// HTTPRepository reads balances from the warehouse backend.
type HTTPRepository struct {
	api *backend.Client
}

func NewHTTPRepository(api *backend.Client) *HTTPRepository {
	return &HTTPRepository{api: api}
}

// List fetches balances. Empty filter slices mean no constraint and are
// omitted from the query string.
func (r *HTTPRepository) List(ctx context.Context, filters Filters) ([]Balance, error) {
	params := backend.Params{
		"resourceIds": filters.ResourceIDs,
		"unitIds":     filters.UnitIDs,
	}
	var rows []Balance
	if err := r.api.Get(ctx, "/balances", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
