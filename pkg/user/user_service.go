package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	// FindMissing returns the ids that are not registered, in input order.
	FindMissing(ctx context.Context, ids []string) ([]string, error)
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (u *UserServiceImpl) CreateUser(ctx context.Context, user User) (User, error) {
	user.Id = strings.TrimSpace(user.Id)
	user.Name = strings.TrimSpace(user.Name)
	if user.Id == "" {
		return User{}, fmt.Errorf("%w: id is required", ErrUserDataInvalid)
	}
	if user.Name == "" {
		user.Name = user.Id
	}
	created, err := u.repo.CreateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	log.Infof("Registered user %s", created.Id)
	return created, nil
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id string) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) FindMissing(ctx context.Context, ids []string) ([]string, error) {
	existing, err := u.repo.FindExistingIds(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("could not look up users: %w", err)
	}
	missing, _ := lo.Difference(ids, existing)
	return missing, nil
}
