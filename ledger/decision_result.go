package ledger

// DecisionResult represents the outcome of a ledger decision.
//
// Construct it only with IdempotentDecision or SuccessDecision.
// Ledger decisions have no error outcome: borrowing and returning cannot fail.
type DecisionResult struct {
	Outcome string      // "idempotent" or "success"
	Event   DomainEvent // nil for idempotent decisions
}

const (
	idempotentOutcome = "idempotent"
	successOutcome    = "success"
)

// IdempotentDecision creates a DecisionResult indicating no state change is needed.
func IdempotentDecision() DecisionResult {
	return DecisionResult{
		Outcome: idempotentOutcome,
		Event:   nil,
	}
}

// SuccessDecision creates a DecisionResult indicating a state change described by the event.
func SuccessDecision(event DomainEvent) DecisionResult {
	return DecisionResult{
		Outcome: successOutcome,
		Event:   event,
	}
}

// HasEventToApply returns true if the decision changes the ledger.
func (r DecisionResult) HasEventToApply() bool {
	return r.Outcome != idempotentOutcome
}

// IsIdempotent returns true if the decision left the ledger unchanged.
func (r DecisionResult) IsIdempotent() bool {
	return r.Outcome == idempotentOutcome
}
