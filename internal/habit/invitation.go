package habit

import "fmt"

// InvitationStatus is the lifecycle state of a sharing invitation.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationRefused   InvitationStatus = "refused"
	InvitationAbandoned InvitationStatus = "abandoned"
)

// ParseInvitationStatus validates a status string.
func ParseInvitationStatus(s string) (InvitationStatus, error) {
	switch InvitationStatus(s) {
	case InvitationPending, InvitationAccepted, InvitationRefused, InvitationAbandoned:
		return InvitationStatus(s), nil
	}
	return "", fmt.Errorf("unknown invitation status: %q", s)
}

// legalTransitions is the complete set of allowed status changes. Refused and
// abandoned are terminal for the invitee; only a re-invite by the owner
// resets such a row to pending.
var legalTransitions = map[InvitationStatus][]InvitationStatus{
	InvitationPending:  {InvitationAccepted, InvitationRefused},
	InvitationAccepted: {InvitationAbandoned},
}

// CanTransition reports whether from → to is a legal invitee transition.
func CanTransition(from, to InvitationStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
