package services

import (
	"errors"
)

// Caller errors: bad input, surfaced directly and never retried.
var (
	ErrInsufficientStores = errors.New("at least two distinct stores are required")
	ErrTooManyStores      = errors.New("too many stores requested")
	ErrEmptyWishList      = errors.New("wish list is empty")
	ErrInvalidWishItem    = errors.New("invalid wish list item")
	ErrUnknownStore       = errors.New("unknown store")
	ErrInvalidPrice       = errors.New("price must not be negative")
	ErrListingNotFound    = errors.New("listing not found")
	ErrEmptyQuery         = errors.New("search query is empty")
	ErrUserNotFound       = errors.New("user not found")
)

// ErrUpstreamUnavailable wraps failures of the listing, history or notification stores.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// IsCallerError reports whether err was caused by the caller's input.
func IsCallerError(err error) bool {
	for _, target := range []error{
		ErrInsufficientStores,
		ErrTooManyStores,
		ErrEmptyWishList,
		ErrInvalidWishItem,
		ErrUnknownStore,
		ErrInvalidPrice,
		ErrListingNotFound,
		ErrEmptyQuery,
		ErrUserNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
