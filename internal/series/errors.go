package series

import "fmt"

// ValidationError rejects a series request before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PartialSeriesError reports that clearing the patient's existing series
// succeeded but creating the replacement failed, leaving the patient with
// fewer pending appointments than before. It must never be collapsed into a
// generic failure: the caller has to surface the deleted count.
type PartialSeriesError struct {
	DeletedCount int64
	Err          error
}

func (e *PartialSeriesError) Error() string {
	return fmt.Sprintf("series partially applied: %d existing appointments were deleted but the new ones could not be created: %v",
		e.DeletedCount, e.Err)
}

func (e *PartialSeriesError) Unwrap() error {
	return e.Err
}
