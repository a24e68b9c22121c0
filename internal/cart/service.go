package cart

import "context"

// Service validates cart requests. Stock is not checked here; checkout
// does that under a row lock.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Add(ctx context.Context, userID, productID, qty int) (bool, error) {
	if productID <= 0 || qty <= 0 {
		return false, ErrInvalidQuantity
	}
	return s.repo.Add(ctx, userID, productID, qty)
}

// SetQuantity overwrites the line quantity. Zero removes the line.
func (s *Service) SetQuantity(ctx context.Context, userID, productID, qty int) error {
	if qty < 0 {
		return ErrInvalidQuantity
	}
	if qty == 0 {
		return s.repo.Remove(ctx, userID, productID)
	}
	return s.repo.SetQuantity(ctx, userID, productID, qty)
}

func (s *Service) Remove(ctx context.Context, userID, productID int) error {
	return s.repo.Remove(ctx, userID, productID)
}

func (s *Service) List(ctx context.Context, userID int) ([]Item, error) {
	return s.repo.List(ctx, userID)
}
