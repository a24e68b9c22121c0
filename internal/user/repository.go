package user

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrMissingFields      = errors.New("username, email, phone, and password are required")
	ErrInvalidRole        = errors.New("user_type must be 'admin' or 'user'")
	ErrEmptyPatch         = errors.New("no fields to update")
	ErrSelfDelete         = errors.New("admins cannot delete their own account")
	ErrHasDependents      = errors.New("user still owns products or orders")
)

type Repository interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, id int, patch Patch) (User, error)
	Delete(ctx context.Context, id int) error
}

type InMemoryRepository struct {
	mu         sync.RWMutex
	users      []User
	nextID     int
	dependents map[int]bool
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:      make([]User, 0, len(seed)),
		nextID:     1,
		dependents: make(map[int]bool),
	}

	maxID := 0
	for _, user := range seed {
		repo.users = append(repo.users, user)
		if user.ID > maxID {
			maxID = user.ID
		}
	}

	repo.nextID = maxID + 1
	return repo
}

// MarkDependents records that the user owns products or orders, which
// blocks deletion the way the foreign keys do in Postgres.
func (r *InMemoryRepository) MarkDependents(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dependents[id] = true
}

func (r *InMemoryRepository) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, len(r.users))
	copy(users, r.users)
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}

	return User{}, ErrNotFound
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}

	return User{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return User{}, ErrEmailExists
		}
	}

	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.users = append(r.users, user)
	return user, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int, patch Patch) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if patch.Email != nil {
		for _, existing := range r.users {
			if existing.ID != id && existing.Email == *patch.Email {
				return User{}, ErrEmailExists
			}
		}
	}

	for i, user := range r.users {
		if user.ID != id {
			continue
		}
		if patch.Username != nil {
			user.Username = *patch.Username
		}
		if patch.Email != nil {
			user.Email = *patch.Email
		}
		if patch.Phone != nil {
			user.Phone = *patch.Phone
		}
		if patch.Role != nil {
			user.Role = *patch.Role
		}
		user.UpdatedAt = time.Now().UTC()
		r.users[i] = user
		return user, nil
	}

	return User{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, user := range r.users {
		if user.ID == id {
			if r.dependents[id] {
				return ErrHasDependents
			}
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}

	return ErrNotFound
}
