package dictionary

import (
	"context"
	"strconv"

	"github.com/stockdesk/stockdesk/internal/backend"
)

// Repository is the backend surface a dictionary screen needs.
type Repository interface {
	List(ctx context.Context, q string, state *EntityState) ([]Entry, error)
	ListActive(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, id int64) (Entry, error)
	Create(ctx context.Context, payload Payload) (Entry, error)
	Update(ctx context.Context, id int64, payload Payload) (Entry, error)
	Archive(ctx context.Context, id int64) (Entry, error)
	Activate(ctx context.Context, id int64) (Entry, error)
	Remove(ctx context.Context, id int64) error
}

// HTTPRepository maps the Repository surface onto one backend resource
// (/units, /resources or /clients; they share the same endpoint shape).
type HTTPRepository struct {
	api  *backend.Client
	base string
}

// NewHTTPRepository builds a repository rooted at base, e.g. "/units".
func NewHTTPRepository(api *backend.Client, base string) *HTTPRepository {
	return &HTTPRepository{api: api, base: base}
}

func (r *HTTPRepository) List(ctx context.Context, q string, state *EntityState) ([]Entry, error) {
	params := backend.Params{"q": q}
	if state != nil {
		params["state"] = string(*state)
	}
	var entries []Entry
	if err := r.api.Get(ctx, r.base, params, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *HTTPRepository) ListActive(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := r.api.Get(ctx, r.base+"/active", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *HTTPRepository) Get(ctx context.Context, id int64) (Entry, error) {
	var entry Entry
	if err := r.api.Get(ctx, r.itemPath(id), nil, &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *HTTPRepository) Create(ctx context.Context, payload Payload) (Entry, error) {
	var entry Entry
	if err := r.api.Post(ctx, r.base, payload, &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *HTTPRepository) Update(ctx context.Context, id int64, payload Payload) (Entry, error) {
	var entry Entry
	if err := r.api.Put(ctx, r.itemPath(id), payload, &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *HTTPRepository) Archive(ctx context.Context, id int64) (Entry, error) {
	var entry Entry
	if err := r.api.Post(ctx, r.itemPath(id)+"/archive", nil, &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *HTTPRepository) Activate(ctx context.Context, id int64) (Entry, error) {
	var entry Entry
	if err := r.api.Post(ctx, r.itemPath(id)+"/activate", nil, &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (r *HTTPRepository) Remove(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, r.itemPath(id))
}

func (r *HTTPRepository) itemPath(id int64) string {
	return r.base + "/" + strconv.FormatInt(id, 10)
}
