package advisory

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means the advisory credential is missing. It gates every
// call; exam-taking and scoring are unaffected.
var ErrNotConfigured = errors.New("advisory: API key not configured")

// AuthError is an authentication-class failure (invalid or rejected
// credential). It short-circuits the model fallback loop: retrying other
// models with the same bad key is useless.
type AuthError struct {
	Model string
	Err   error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("advisory: auth failure on model %s: %v", e.Model, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ServiceError means every candidate model failed; it wraps the last error.
type ServiceError struct {
	Models []string
	Err    error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("advisory: all models failed (%v): %v", e.Models, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
