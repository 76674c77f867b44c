package user

import (
	"context"
	"fmt"
	"sync"
)

type StubUserRepository struct {
	mu   sync.RWMutex
	data map[string]User

	// Err, when set, fails every call.
	Err error
}

func NewStubUserRepository(users ...User) *StubUserRepository {
	data := make(map[string]User, len(users))
	for _, u := range users {
		data[u.Id] = u
	}
	return &StubUserRepository{data: data}
}

func (s *StubUserRepository) CreateUser(ctx context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return User{}, s.Err
	}
	if _, ok := s.data[user.Id]; ok {
		return User{}, fmt.Errorf("%w: %s", ErrUserExists, user.Id)
	}
	s.data[user.Id] = user
	return user, nil
}

func (s *StubUserRepository) GetUser(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return User{}, s.Err
	}
	user, ok := s.data[id]
	if !ok {
		return User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return user, nil
}

func (s *StubUserRepository) FindExistingIds(ctx context.Context, ids []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	existing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.data[id]; ok {
			existing = append(existing, id)
		}
	}
	return existing, nil
}
