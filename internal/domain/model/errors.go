package model

import "errors"

var (
	ErrCountryNotFound       = errors.New("country not found")
	ErrUnsupportedOperation  = errors.New("operation not supported by remote source")
	ErrMissingReferenceEntry = errors.New("reference country missing from bulk response")
)
