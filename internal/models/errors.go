package models

import "errors"

// Configuration errors
var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrInvalidTenant  = errors.New("invalid tenant configuration")
)

// Identity errors
var (
	ErrNoIdentity        = errors.New("no identity available")
	ErrIdentityTimeout   = errors.New("identity resolution timed out")
	ErrIdentityCancelled = errors.New("identity resolution cancelled")
	ErrInvalidClientID   = errors.New("invalid client id")
	ErrInvalidScope      = errors.New("invalid storage scope")
)

// Progress errors
var (
	ErrInvalidEmail           = errors.New("invalid user email")
	ErrInvalidPageType        = errors.New("invalid page type")
	ErrInvalidStepID          = errors.New("invalid step id")
	ErrPersistenceWriteFailed = errors.New("progress write failed")
)
