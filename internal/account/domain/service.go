package domain

import (
	"context"
	"errors"
)

type LinkRequest struct {
	ProfileID string
	Platform  string
	Username  string
}

type UnlinkRequest struct {
	ProfileID string
	Platform  string
}

type ListLinkedRequest struct {
	ProfileID string
}

// Service is the account registry: which platform usernames belong to which
// performer profile. Linking replaces any previous active row for the same
// (profile, platform); unlinking is idempotent. Neither triggers a fetch.
type Service interface {
	Link(context.Context, LinkRequest) (LinkedAccount, error)
	Unlink(context.Context, UnlinkRequest) error
	ListLinked(context.Context, ListLinkedRequest) ([]LinkedAccount, error)
}

var (
	ErrInvalidProfileID = errors.New("invalid_profile_id")
	ErrInvalidUsername  = errors.New("invalid_username")
	ErrProfileNotFound  = errors.New("profile_not_found")
	ErrNotLinked        = errors.New("not_linked")
)
