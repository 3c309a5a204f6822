package models

import (
	dErrors "recert/pkg/domain-errors"
)

// Decision is a reviewer's verdict on a review item.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionRevoked  Decision = "revoked"
)

// ParseDecision validates a reviewer-submitted verdict. Only approved and
// revoked are accepted: decisions never reopen to pending.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionApproved:
		return DecisionApproved, nil
	case DecisionRevoked:
		return DecisionRevoked, nil
	case DecisionPending:
		return "", dErrors.New(dErrors.CodeInvalidInput, "decision cannot be set back to pending")
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown decision %q", s)
	}
}

// IsDecided reports whether the decision is terminal for the item.
func (d Decision) IsDecided() bool {
	return d == DecisionApproved || d == DecisionRevoked
}

func (d Decision) String() string { return string(d) }
