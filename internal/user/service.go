package user

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// Register creates a regular account. The email is normalized before the
// uniqueness check.
func (s *Service) Register(ctx context.Context, user User) (User, error) {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = normalizeEmail(user.Email)
	user.Phone = strings.TrimSpace(user.Phone)
	if user.Username == "" || user.Email == "" || user.Phone == "" || user.Password == "" {
		return User{}, ErrMissingFields
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	if !user.Role.Valid() {
		return User{}, ErrInvalidRole
	}

	if _, err := s.repo.GetByEmail(ctx, user.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user.Password = string(hashed)
	return s.repo.Create(ctx, user)
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) Update(ctx context.Context, id int, patch Patch) (User, error) {
	if patch.Username != nil {
		v := strings.TrimSpace(*patch.Username)
		patch.Username = &v
	}
	if patch.Email != nil {
		v := normalizeEmail(*patch.Email)
		patch.Email = &v
	}
	if err := patch.Validate(); err != nil {
		return User{}, err
	}
	return s.repo.Update(ctx, id, patch)
}

// Delete removes a user on behalf of actorID, who may not remove themselves.
func (s *Service) Delete(ctx context.Context, actorID, id int) error {
	if actorID == id {
		return ErrSelfDelete
	}
	return s.repo.Delete(ctx, id)
}

// EnsureAdmin promotes the account with the given email to admin, creating
// it when it does not exist yet. The boolean reports whether it was created.
func (s *Service) EnsureAdmin(ctx context.Context, user User) (User, bool, error) {
	existing, err := s.repo.GetByEmail(ctx, normalizeEmail(user.Email))
	switch {
	case err == nil:
		if existing.Role == RoleAdmin {
			return existing, false, nil
		}
		role := RoleAdmin
		promoted, err := s.repo.Update(ctx, existing.ID, Patch{Role: &role})
		return promoted, false, err
	case errors.Is(err, ErrNotFound):
		user.Role = RoleAdmin
		created, err := s.Register(ctx, user)
		return created, err == nil, err
	default:
		return User{}, false, err
	}
}
