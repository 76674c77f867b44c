package user

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrUserDataInvalid = errors.New("invalid user data")
)

// User is a participant known to the directory. Id is an opaque identifier chosen by the caller.
type User struct {
	Id   string
	Name string
}
