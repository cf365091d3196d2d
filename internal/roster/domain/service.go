package domain

import (
	"context"
	"errors"
)

type CreateProfileRequest struct {
	DisplayName string
}

type GetProfileRequest struct {
	ID string
}

type ListProfilesRequest struct {
	Limit int32
}

type Service interface {
	Create(context.Context, CreateProfileRequest) (Profile, error)
	GetByID(context.Context, GetProfileRequest) (Profile, error)
	List(context.Context, ListProfilesRequest) ([]Profile, error)
}

var (
	ErrInvalidDisplayName = errors.New("invalid_display_name")
	ErrInvalidID          = errors.New("invalid_id")
	ErrNotFound           = errors.New("not_found")
)
