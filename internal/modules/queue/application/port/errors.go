package port

import (
	"errors"

	"queueWatch/internal/modules/queue/domain"
)

var (
	// ErrSourceUnavailable indicates the provider could not be reached or reported a failure.
	ErrSourceUnavailable = errors.New("queue source unavailable")
	// ErrStoreNotFound indicates the provider answered but the target store was absent.
	ErrStoreNotFound = errors.New("target store not found")
	// ErrPersistence wraps local log and durable store write failures.
	ErrPersistence = errors.New("snapshot persistence failed")
	// ErrRemote indicates the remote sink rejected or failed the write.
	ErrRemote = errors.New("remote sink failed")
	// ErrRemoteDisabled is returned when no remote credential is configured.
	ErrRemoteDisabled = errors.New("remote sink disabled: missing credential")
	// ErrInvalidSnapshot aliases the domain validation error for callers that only import port.
	ErrInvalidSnapshot = domain.ErrInvalidSnapshot
)
