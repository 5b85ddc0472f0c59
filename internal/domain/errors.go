package domain

import "errors"

var (
	ErrAuthFailure         = errors.New("authentication failed")
	ErrProviderUnavailable = errors.New("auth provider unavailable")
	ErrSubscription        = errors.New("subscription error")
	ErrWrite               = errors.New("write failed")

	ErrNotAuthenticated   = errors.New("session is not authenticated")
	ErrEmptyURL           = errors.New("url is empty")
	ErrUnknownPlatform    = errors.New("unknown platform")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrEngineStopped      = errors.New("sync engine stopped")
)
