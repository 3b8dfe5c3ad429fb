package decision

import "sentinelle/internal/policy"

// Resolve is the review state machine's transition function: total over
// (current decision, human verdict).
//
// Human review is only actionable on REVIEW-state records: APPROVE settles
// them to ACCEPT, REJECT to REJECT. Any other state is left unchanged; the
// attempt is still recorded as a ReviewEntry so the audit trail shows who
// tried to overturn what.
func Resolve(current policy.Decision, human HumanDecision) policy.Decision {
	if current != policy.DecisionReview {
		return current
	}
	if human == HumanApprove {
		return policy.DecisionAccept
	}
	return policy.DecisionReject
}

// Replay reconstructs the decision that should currently stand by applying
// the transition function over the review sequence in creation order. For a
// consistent record, Replay(original, record.Reviews) equals record.Decision.
func Replay(original policy.Decision, reviews []ReviewEntry) policy.Decision {
	current := original
	for _, entry := range reviews {
		current = Resolve(current, entry.HumanDecision)
	}
	return current
}

// OriginalDecision recovers the decision as arbitrated at creation time: the
// first review's previous_decision if the record has been reviewed, otherwise
// the current value.
func OriginalDecision(record *Record) policy.Decision {
	if len(record.Reviews) > 0 {
		return record.Reviews[0].PreviousDecision
	}
	return record.Decision
}
