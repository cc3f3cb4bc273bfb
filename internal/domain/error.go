package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrAccessDenied     = errors.New("access denied")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrUnsafeURL        = errors.New("url failed safety validation")
	ErrExpiredToken     = errors.New("purchase token has expired")
	ErrAlreadyPurchased = errors.New("purchase token already purchased")
	ErrNotPurchased     = errors.New("purchase token not purchased yet")
	ErrDeliveryFailed   = errors.New("webhook delivery failed")
)
