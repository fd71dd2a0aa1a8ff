package convert

// Status is the per-file state machine value. SELECTED is a derived display
// state (Pending plus membership in the selection); it never appears in
// status updates.
type Status int

const (
	StatusPending Status = iota
	StatusSelected
	StatusQueued
	StatusSanitizing
	StatusConverting
	StatusSuccess
	StatusFailed
)

var statusLabels = [...]string{
	StatusPending:    "PENDING",
	StatusSelected:   "SELECTED",
	StatusQueued:     "QUEUED",
	StatusSanitizing: "SANITIZING",
	StatusConverting: "CONVERTING",
	StatusSuccess:    "SUCCESS",
	StatusFailed:     "FAILED",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusLabels) {
		return "UNKNOWN"
	}
	return statusLabels[s]
}

// Terminal reports whether s is an end state for a batch member.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}
