package recur

import "practice-scheduler-backend/internal/model"

// Plan is one of the allowed ways a series request may be applied.
type Plan string

const (
	// PlanCreateOnly creates the new occurrences without touching anything.
	PlanCreateOnly Plan = "create_only"
	// PlanReplace deletes the patient's pending recurring occurrences before
	// creating the new series.
	PlanReplace Plan = "replace"
	// PlanKeep creates the new series alongside the existing one.
	PlanKeep Plan = "keep"
)

// Decision states whether a series request needs user confirmation and which
// plans the caller may offer. Reconcile never picks a plan itself.
type Decision struct {
	RequiresConfirmation bool
	Plans                []Plan
}

// Reconcile inspects a new series request against the patient's existing
// occurrences. Confirmation is required only when the request is recurring
// and the patient already has a pending recurring occurrence; in that case
// the caller must let the user choose between PlanReplace and PlanKeep.
func Reconcile(requested model.Frequency, existing []model.Occurrence) Decision {
	if !requested.Recurring() || !hasPendingRecurring(existing) {
		return Decision{RequiresConfirmation: false, Plans: []Plan{PlanCreateOnly}}
	}
	return Decision{RequiresConfirmation: true, Plans: []Plan{PlanReplace, PlanKeep}}
}

func hasPendingRecurring(occurrences []model.Occurrence) bool {
	for _, occ := range occurrences {
		if occ.Status == model.StatusPending && occ.Frequency.Recurring() {
			return true
		}
	}
	return false
}
