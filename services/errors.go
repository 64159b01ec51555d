package services

import "errors"

// Error taxonomy surfaced to callers. Validation and authorization failures
// are rejected before any write; state conflicts are rejected without
// mutating anything and may be retried by the caller after a re-fetch.
// Transient store failures are retried internally with bounded backoff and
// collapse into ErrUnavailable once exhausted.
var (
	ErrNotFound            = errors.New("not found")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrSelfRequest         = errors.New("cannot send a friend request to yourself")
	ErrDuplicateRequest    = errors.New("a pending or accepted request already exists between these users")
	ErrInvalidState        = errors.New("request is no longer pending")
	ErrEmptyMembership     = errors.New("group members must include the creator and cannot be empty")
	ErrNotAMember          = errors.New("user is not a member of this group")
	ErrEmptyName           = errors.New("name cannot be empty")
	ErrUnknownDirection    = errors.New("direction must be incoming or outgoing")
	ErrEmptyMessage        = errors.New("message cannot be empty")
	ErrEmptyQuestion       = errors.New("poll question cannot be empty")
	ErrInsufficientOptions = errors.New("poll needs at least two options")
	ErrAlreadyVoted        = errors.New("user has already voted on this poll")
	ErrPollClosed          = errors.New("poll is closed")
	ErrUnknownOption       = errors.New("unknown poll option")
	ErrWriteConflict       = errors.New("write conflict, please retry")
	ErrUnavailable         = errors.New("store unavailable")
)
