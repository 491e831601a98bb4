package shipments

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
)

// Lifecycle guard failures. The handlers translate these into warnings
// instead of backend error text.
var (
	ErrNotDraft  = errors.New("shipment is not a draft")
	ErrNotSigned = errors.New("shipment is not signed")
)

// Service wraps the repository with payload validation and lifecycle
// guards. The backend enforces the same transitions and remains the
// authority; the guards here avoid doomed round trips.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) List(ctx context.Context, filters Filters) ([]Shipment, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) ListNumbers(ctx context.Context) ([]string, error) {
	return s.repo.ListNumbers(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Shipment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, payload Payload) (Shipment, error) {
	if err := s.validate.Struct(payload); err != nil {
		return Shipment{}, err
	}
	return s.repo.Create(ctx, payload)
}

// Update rejects changes to signed documents.
func (s *Service) Update(ctx context.Context, id int64, payload Payload) (Shipment, error) {
	if err := s.validate.Struct(payload); err != nil {
		return Shipment{}, err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Shipment{}, err
	}
	if !current.State.CanEdit() {
		return Shipment{}, ErrNotDraft
	}
	return s.repo.Update(ctx, id, payload)
}

// Remove rejects deletion of signed documents; they must be revoked first.
func (s *Service) Remove(ctx context.Context, id int64) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !current.State.CanDelete() {
		return ErrNotDraft
	}
	return s.repo.Remove(ctx, id)
}

// Sign transitions a draft to signed.
func (s *Service) Sign(ctx context.Context, id int64) (Shipment, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Shipment{}, err
	}
	if !current.State.CanSign() {
		return Shipment{}, ErrNotDraft
	}
	return s.repo.Sign(ctx, id)
}

// Revoke returns a signed document to draft.
func (s *Service) Revoke(ctx context.Context, id int64) (Shipment, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Shipment{}, err
	}
	if !current.State.CanRevoke() {
		return Shipment{}, ErrNotSigned
	}
	return s.repo.Revoke(ctx, id)
}
