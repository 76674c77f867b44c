package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

type Repo interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	// FindExistingIds returns the subset of ids that are registered, in no particular order.
	FindExistingIds(ctx context.Context, ids []string) ([]string, error)
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (User, error) {
	query := `INSERT INTO users (id, name) VALUES ($1, $2)`
	_, err := u.db.Exec(ctx, query, user.Id, user.Name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, fmt.Errorf("%w: %s", ErrUserExists, user.Id)
		}
		log.Errorf("failed to create user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id string) (User, error) {
	query := `SELECT id, name FROM users WHERE id = $1`
	var user User
	err := u.db.QueryRow(ctx, query, id).Scan(&user.Id, &user.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user with id %s not found", id)
		return User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) FindExistingIds(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	rows, err := u.db.Query(ctx, `SELECT id FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		log.Errorf("failed to query users: %v", err)
		return nil, err
	}
	existing, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		log.Errorf("failed to scan user ids: %v", err)
		return nil, err
	}
	return existing, nil
}
