package auth

import errs "github.com/jrsteele09/go-partner-dashboard/internal/errors"

var (
	ErrInvalidCredentials = errs.ErrInvalidCredentials
	ErrAccessDenied       = errs.ErrAccessDenied
)
