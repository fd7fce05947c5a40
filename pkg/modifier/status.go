package modifier

// Status records the outcome of the most recent lifecycle transition of
// a Modification. The status is the sole durable record of that
// outcome; the engine keeps no hidden counters alongside it.
type Status string

const (
	// StatusQueued is the initial status: constructed, never applied.
	StatusQueued Status = "queued"

	// StatusApplySucceeded means the delta has been added to the field.
	StatusApplySucceeded Status = "apply_succeeded"

	// StatusApplyFailed means the last apply attempt failed and the
	// field was left untouched. Apply may be retried.
	StatusApplyFailed Status = "apply_failed"

	// StatusRevertSucceeded means the delta has been subtracted again;
	// the modification's lifecycle is complete.
	StatusRevertSucceeded Status = "revert_succeeded"

	// StatusRevertFailed means the last unapply attempt failed and the
	// field still carries the delta. Unapply may be retried.
	StatusRevertFailed Status = "revert_failed"
)

func (s Status) String() string {
	return string(s)
}

// Pending reports whether the modification still has work outstanding:
// never applied, or the last apply or unapply attempt failed.
func (s Status) Pending() bool {
	return s == StatusQueued || s == StatusApplyFailed || s == StatusRevertFailed
}

func (s Status) applyAllowed() bool {
	return s == StatusQueued || s == StatusApplyFailed
}

func (s Status) unapplyAllowed() bool {
	return s == StatusApplySucceeded || s == StatusRevertFailed
}
