package habit

import (
	"fmt"
	"time"

	"github.com/rutina-app/rutina/internal/model"
)

// HabitSource provides habit definitions and the set of habits a user
// participates in (owned plus accepted-shared, each with its join date).
type HabitSource interface {
	GetByID(id int64) (*model.Habit, error)
	ListParticipating(userID int64) ([]model.Participation, error)
}

// CompletionSource provides bulk completion reads and the idempotent
// per-(user, habit, day) upsert.
type CompletionSource interface {
	ListForUserInRange(userID int64, start, end time.Time) ([]model.Completion, error)
	Upsert(userID, habitID int64, day time.Time, completed bool) (*model.Completion, error)
}

// InvitationSource provides sharing invitations. UpdateStatus must apply the
// change only when the stored status equals from, reporting whether a row
// was updated. That compare-and-swap keeps two concurrent transitions from
// both succeeding.
type InvitationSource interface {
	Get(habitID, sharedWithID int64) (*model.HabitInvitation, error)
	Invite(habitID, sharedWithID int64) (*model.HabitInvitation, error)
	UpdateStatus(habitID, sharedWithID int64, from, to InvitationStatus) (bool, error)
}

// FriendshipSource reports whether two users share an accepted friendship.
type FriendshipSource interface {
	AreFriends(userID, otherID int64) (bool, error)
}

// Service implements the habit accountability operations: membership
// resolution, the invitation lifecycle, completion recording, and the
// statistics aggregation. User identity is an explicit parameter on every
// operation.
type Service struct {
	habits      HabitSource
	completions CompletionSource
	invitations InvitationSource
	friendships FriendshipSource
}

func NewService(hs HabitSource, cs CompletionSource, is InvitationSource, fs FriendshipSource) *Service {
	return &Service{habits: hs, completions: cs, invitations: is, friendships: fs}
}

// ResolveMembership returns the user's role in the habit and their join
// date. Having no relation to an existing habit is not an error: the result
// is RoleNone with a nil join date. A missing habit is ErrNotFound.
func (s *Service) ResolveMembership(userID, habitID int64) (Membership, error) {
	h, err := s.habits.GetByID(habitID)
	if err != nil {
		return Membership{}, fmt.Errorf("get habit: %w", err)
	}
	if h == nil {
		return Membership{}, ErrNotFound
	}

	if h.UserID == userID {
		joined := DateOnly(h.StartDate)
		return Membership{Role: RoleOwner, JoinedAt: &joined}, nil
	}

	inv, err := s.invitations.Get(habitID, userID)
	if err != nil {
		return Membership{}, fmt.Errorf("get invitation: %w", err)
	}
	if inv != nil && InvitationStatus(inv.Status) == InvitationAccepted {
		joined := inv.UpdatedAt
		return Membership{Role: RoleSharer, JoinedAt: &joined}, nil
	}

	return Membership{Role: RoleNone}, nil
}

// CreateInvitation invites a user to a habit. Only the owner may invite, and
// only users with whom the owner has an accepted friendship are eligible.
// Re-inviting a user whose invitation was refused or abandoned resets the
// existing row to pending; pending and accepted rows are left untouched.
func (s *Service) CreateInvitation(ownerID, habitID, inviteeID int64) (*model.HabitInvitation, error) {
	h, err := s.habits.GetByID(habitID)
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}
	if h == nil || h.UserID != ownerID {
		return nil, ErrNotFound
	}

	if inviteeID == ownerID {
		return nil, ErrIneligibleInvitee
	}
	friends, err := s.friendships.AreFriends(ownerID, inviteeID)
	if err != nil {
		return nil, fmt.Errorf("check friendship: %w", err)
	}
	if !friends {
		return nil, ErrIneligibleInvitee
	}

	return s.invitations.Invite(habitID, inviteeID)
}

// TransitionInvitation applies a status change on behalf of the invitee.
// The (from, to) pair must be in the legal set and the stored status must
// still equal from at update time; otherwise ErrInvalidTransition. A pair
// with no invitation row at all is ErrNotFound.
func (s *Service) TransitionInvitation(habitID, userID int64, from, to InvitationStatus) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}

	updated, err := s.invitations.UpdateStatus(habitID, userID, from, to)
	if err != nil {
		return fmt.Errorf("update invitation status: %w", err)
	}
	if updated {
		return nil
	}

	inv, err := s.invitations.Get(habitID, userID)
	if err != nil {
		return fmt.Errorf("get invitation: %w", err)
	}
	if inv == nil {
		return ErrNotFound
	}
	return ErrInvalidTransition
}

// RecordCompletion upserts the completion flag for (user, habit, day). The
// write is idempotent and allowed only for participants.
func (s *Service) RecordCompletion(userID, habitID int64, day time.Time, completed bool) (*model.Completion, error) {
	m, err := s.ResolveMembership(userID, habitID)
	if err != nil {
		return nil, err
	}
	if m.Role == RoleNone {
		return nil, ErrMembershipRequired
	}
	return s.completions.Upsert(userID, habitID, DateOnly(day), completed)
}

// Statistics returns one entry per calendar day in [start, end] inclusive,
// in ascending order. All habit and completion data is fetched up front;
// see ComputeStatistics for the per-day classification rules. A user with no
// participating habits gets a full sequence of zero counts.
func (s *Service) Statistics(userID int64, start, end time.Time) ([]DayStat, error) {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	parts, err := s.habits.ListParticipating(userID)
	if err != nil {
		return nil, fmt.Errorf("list participating habits: %w", err)
	}
	completions, err := s.completions.ListForUserInRange(userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}

	return ComputeStatistics(parts, completions, start, end), nil
}
