package habit

import "errors"

// Business-rule violations surfaced synchronously to the caller. None of
// these represent transient faults and none are retried internally.
var (
	// ErrInvalidRange means a date range's end precedes its start.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInvalidTransition means an invitation status change is not in the
	// legal transition set, or the stored status no longer matches the
	// expected one.
	ErrInvalidTransition = errors.New("invalid invitation transition")

	// ErrIneligibleInvitee means the sharing target is not an accepted
	// friend of the habit owner.
	ErrIneligibleInvitee = errors.New("invitee is not an accepted friend")

	// ErrMembershipRequired means a completion write was attempted by a
	// user who is neither the owner nor an accepted sharer.
	ErrMembershipRequired = errors.New("user is not a participant of the habit")

	// ErrNotFound means a referenced habit, user, or record is absent.
	ErrNotFound = errors.New("not found")
)
