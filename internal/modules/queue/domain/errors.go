package domain

import "errors"

var (
	// ErrMalformedSourceData indicates the provider record lacks the fields needed to build a Snapshot.
	ErrMalformedSourceData = errors.New("malformed source data")
	// ErrInvalidSnapshot is returned when a snapshot misses fields required for persistence.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidWindow is returned for unparsable operating window bounds.
	ErrInvalidWindow = errors.New("invalid operating window")
)
