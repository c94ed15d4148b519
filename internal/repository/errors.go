package repository

import "errors"

var (
	// ErrNotFound indicates an entity was not located.
	ErrNotFound = errors.New("repository: not found")
	// ErrEmailExists indicates a user with the same normalized email already exists.
	ErrEmailExists = errors.New("repository: email already exists")
	// ErrInvalidArgument indicates malformed input to a repository operation.
	ErrInvalidArgument = errors.New("repository: invalid argument")
)
