package sharing

import "errors"

var (
	ErrInvalidCredentials    = errors.New("invalid share credentials")
	ErrExpired               = errors.New("share link expired")
	ErrTooManyAttempts       = errors.New("too many verification attempts")
	ErrShareLinkNotFound     = errors.New("share link not found")
	ErrInvalidExpiry         = errors.New("invalid expiry")
	ErrTokenConflict         = errors.New("share token already exists")
	ErrTokenGenerationFailed = errors.New("share token generation failed")
)
