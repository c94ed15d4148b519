package auth

import (
	"context"

	"github.com/garuda/remoteauth/internal/domain"
	"github.com/garuda/remoteauth/internal/repository"
)

type userRepoMock struct {
	createFunc       func(context.Context, *domain.User) error
	getByEmailFunc   func(context.Context, string) (*domain.User, error)
	getByIDFunc      func(context.Context, string) (*domain.User, error)
	getBySubjectFunc func(context.Context, string) (*domain.User, error)
	bindSubjectFunc  func(context.Context, string, string) error
	setVerifiedFunc  func(context.Context, string) error
}

func (m userRepoMock) CreateUser(ctx context.Context, user *domain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m userRepoMock) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) GetUserByGoogleSubject(ctx context.Context, subject string) (*domain.User, error) {
	if m.getBySubjectFunc != nil {
		return m.getBySubjectFunc(ctx, subject)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) BindGoogleSubject(ctx context.Context, userID, subject string) error {
	if m.bindSubjectFunc != nil {
		return m.bindSubjectFunc(ctx, userID, subject)
	}
	return nil
}

func (m userRepoMock) SetEmailVerified(ctx context.Context, userID string) error {
	if m.setVerifiedFunc != nil {
		return m.setVerifiedFunc(ctx, userID)
	}
	return nil
}

type refreshRepoMock struct {
	createFunc func(context.Context, *domain.RefreshToken) error
	getFunc    func(context.Context, string) (*domain.RefreshToken, error)
	deleteFunc func(context.Context, string) error
}

func (m refreshRepoMock) CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, token)
	}
	return nil
}

func (m refreshRepoMock) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, token)
	}
	return nil, repository.ErrNotFound
}

func (m refreshRepoMock) DeleteRefreshToken(ctx context.Context, token string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, token)
	}
	return nil
}
