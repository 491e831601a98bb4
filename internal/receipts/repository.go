package receipts

import (
	"context"
	"strconv"

	"github.com/stockdesk/stockdesk/internal/backend"
)

// Repository is the backend surface the receipts screens need.
type Repository interface {
	List(ctx context.Context, filters Filters) ([]Receipt, error)
	Get(ctx context.Context, id int64) (Receipt, error)
	Create(ctx context.Context, payload Payload) (Receipt, error)
	Update(ctx context.Context, id int64, payload Payload) (Receipt, error)
	Remove(ctx context.Context, id int64) error
}

// HTTPRepository maps receipt operations onto the warehouse backend.
type HTTPRepository struct {
	api *backend.Client
}

func NewHTTPRepository(api *backend.Client) *HTTPRepository {
	return &HTTPRepository{api: api}
}

func (r *HTTPRepository) List(ctx context.Context, filters Filters) ([]Receipt, error) {
	params := backend.Params{
		"from":        filters.From,
		"to":          filters.To,
		"numbers":     filters.Numbers,
		"resourceIds": filters.ResourceIDs,
		"unitIds":     filters.UnitIDs,
	}
	var rows []Receipt
	if err := r.api.Get(ctx, "/receipts", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *HTTPRepository) Get(ctx context.Context, id int64) (Receipt, error) {
	var receipt Receipt
	if err := r.api.Get(ctx, itemPath(id), nil, &receipt); err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

func (r *HTTPRepository) Create(ctx context.Context, payload Payload) (Receipt, error) {
	var receipt Receipt
	if err := r.api.Post(ctx, "/receipts", payload, &receipt); err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

func (r *HTTPRepository) Update(ctx context.Context, id int64, payload Payload) (Receipt, error) {
	var receipt Receipt
	if err := r.api.Put(ctx, itemPath(id), payload, &receipt); err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

func (r *HTTPRepository) Remove(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, itemPath(id))
}

func itemPath(id int64) string {
	return "/receipts/" + strconv.FormatInt(id, 10)
}
