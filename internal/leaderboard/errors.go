package leaderboard

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks malformed or out-of-range caller input.
	ErrInvalidArgument = errors.New("leaderboard: invalid argument")
	// ErrNotFound marks a reference to a player, game or score that does not exist.
	ErrNotFound = errors.New("leaderboard: not found")
	// ErrConflict marks a duplicate name or a duplicate score key on a create-only path.
	ErrConflict = errors.New("leaderboard: conflict")
	// ErrStorage marks an unavailable or failing durable medium.
	ErrStorage = errors.New("leaderboard: storage failure")
	// ErrCorruptState marks a persisted document that does not parse into the expected shape.
	ErrCorruptState = errors.New("leaderboard: corrupt state")
	// ErrInvalidDocument marks a document whose records fail structural validation.
	ErrInvalidDocument = errors.New("leaderboard: invalid document")
	// ErrDocumentMissing is returned by stores that hold no document yet.
	ErrDocumentMissing = errors.New("leaderboard: document missing")
)

// StorageError wraps a failure of the durable medium.
type StorageError struct {
	Operation string
	Err       error
}

// NewStorageError annotates cause with the failing storage operation.
func NewStorageError(operation string, cause error) error {
	return &StorageError{Operation: operation, Err: cause}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is matches ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// CorruptStateError reports a stored document that could not be decoded or validated.
type CorruptStateError struct {
	Reason string
	Err    error
}

// NewCorruptStateError annotates cause with a short reason.
func NewCorruptStateError(reason string, cause error) error {
	return &CorruptStateError{Reason: reason, Err: cause}
}

func (e *CorruptStateError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("corrupt state: %s", e.Reason)
	}
	return fmt.Sprintf("corrupt state: %s: %v", e.Reason, e.Err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

// Is matches ErrCorruptState.
func (e *CorruptStateError) Is(target error) bool {
	return target == ErrCorruptState
}

// ServiceError carries a stable operation.reason code alongside the taxonomy kind and cause.
type ServiceError struct {
	code string
	kind error
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() []error {
	causes := make([]error, 0, 2)
	if e.kind != nil {
		causes = append(causes, e.kind)
	}
	if e.err != nil {
		causes = append(causes, e.err)
	}
	return causes
}

// Code returns the dotted operation.reason identifier.
func (e *ServiceError) Code() string {
	return e.code
}

func newServiceError(operation, reason string, kind, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, kind: kind, err: cause}
}

// classifyStoreError keeps storage and corruption failures distinguishable for callers.
func classifyStoreError(err error) error {
	switch {
	case errors.Is(err, ErrCorruptState):
		return ErrCorruptState
	default:
		return ErrStorage
	}
}
