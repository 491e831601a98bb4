package receipts

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
)

// Service wraps the repository with payload validation and derived lookups.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) List(ctx context.Context, filters Filters) ([]Receipt, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Receipt, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, payload Payload) (Receipt, error) {
	if err := s.validate.Struct(payload); err != nil {
		return Receipt{}, err
	}
	return s.repo.Create(ctx, payload)
}

func (s *Service) Update(ctx context.Context, id int64, payload Payload) (Receipt, error) {
	if err := s.validate.Struct(payload); err != nil {
		return Receipt{}, err
	}
	return s.repo.Update(ctx, id, payload)
}

func (s *Service) Remove(ctx context.Context, id int64) error {
	return s.repo.Remove(ctx, id)
}

// ListNumbers returns the distinct document numbers across all receipts,
// sorted, for the list screen's number filter. The backend has no numbers
// endpoint for receipts so the set is derived from an unfiltered list.
func (s *Service) ListNumbers(ctx context.Context) ([]string, error) {
	rows, err := s.repo.List(ctx, Filters{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(rows))
	numbers := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Number == "" {
			continue
		}
		if _, ok := seen[r.Number]; ok {
			continue
		}
		seen[r.Number] = struct{}{}
		numbers = append(numbers, r.Number)
	}
	sort.Strings(numbers)
	return numbers, nil
}
