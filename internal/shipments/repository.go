package shipments

import (
	"context"
	"strconv"

	"github.com/stockdesk/stockdesk/internal/backend"
)

// Repository is the backend surface the shipment screens need.
type Repository interface {
	List(ctx context.Context, filters Filters) ([]Shipment, error)
	ListNumbers(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id int64) (Shipment, error)
	Create(ctx context.Context, payload Payload) (Shipment, error)
	Update(ctx context.Context, id int64, payload Payload) (Shipment, error)
	Remove(ctx context.Context, id int64) error
	Sign(ctx context.Context, id int64) (Shipment, error)
	Revoke(ctx context.Context, id int64) (Shipment, error)
}

// HTTPRepository maps shipment operations onto the warehouse backend.
type HTTPRepository struct {
	api *backend.Client
}

func NewHTTPRepository(api *backend.Client) *HTTPRepository {
	return &HTTPRepository{api: api}
}

func (r *HTTPRepository) List(ctx context.Context, filters Filters) ([]Shipment, error) {
	params := backend.Params{
		"dateFrom":    filters.DateFrom,
		"dateTo":      filters.DateTo,
		"numbers":     filters.Numbers,
		"resourceIds": filters.ResourceIDs,
		"unitIds":     filters.UnitIDs,
	}
	if filters.ClientID > 0 {
		params["clientId"] = filters.ClientID
	}
	if filters.State != "" {
		params["state"] = string(filters.State)
	}
	var rows []Shipment
	if err := r.api.Get(ctx, "/shipments", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListNumbers reads the backend's distinct shipment number lookup.
func (r *HTTPRepository) ListNumbers(ctx context.Context) ([]string, error) {
	var numbers []string
	if err := r.api.Get(ctx, "/shipments/numbers", nil, &numbers); err != nil {
		return nil, err
	}
	return numbers, nil
}

func (r *HTTPRepository) Get(ctx context.Context, id int64) (Shipment, error) {
	var shipment Shipment
	if err := r.api.Get(ctx, itemPath(id), nil, &shipment); err != nil {
		return Shipment{}, err
	}
	return shipment, nil
}

func (r *HTTPRepository) Create(ctx context.Context, payload Payload) (Shipment, error) {
	var shipment Shipment
	if err := r.api.Post(ctx, "/shipments", payload, &shipment); err != nil {
		return Shipment{}, err
	}
	return shipment, nil
}

func (r *HTTPRepository) Update(ctx context.Context, id int64, payload Payload) (Shipment, error) {
	var shipment Shipment
	if err := r.api.Put(ctx, itemPath(id), payload, &shipment); err != nil {
		return Shipment{}, err
	}
	return shipment, nil
}

func (r *HTTPRepository) Remove(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, itemPath(id))
}

func (r *HTTPRepository) Sign(ctx context.Context, id int64) (Shipment, error) {
	var shipment Shipment
	if err := r.api.Post(ctx, itemPath(id)+"/sign", nil, &shipment); err != nil {
		return Shipment{}, err
	}
	return shipment, nil
}

func (r *HTTPRepository) Revoke(ctx context.Context, id int64) (Shipment, error) {
	var shipment Shipment
	if err := r.api.Post(ctx, itemPath(id)+"/revoke", nil, &shipment); err != nil {
		return Shipment{}, err
	}
	return shipment, nil
}

func itemPath(id int64) string {
	return "/shipments/" + strconv.FormatInt(id, 10)
}
