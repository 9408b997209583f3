package review

import "fmt"

// Status is the review window's per-book load state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusLoading    Status = "loading"
	StatusLoaded     Status = "loaded"
	StatusLoadFailed Status = "load_failed"
)

// transition validates and returns the next status.
func transition(from, to Status) (Status, error) {
	if !isValidTransition(from, to) {
		return from, fmt.Errorf("invalid transition: %s -> %s", from, to)
	}
	return to, nil
}

// isValidTransition enforces the allowed review state machine edges.
// Loading may re-enter itself when a newer request supersedes an in-flight one.
func isValidTransition(from, to Status) bool {
	switch from {
	case StatusIdle:
		return to == StatusLoading
	case StatusLoading:
		return to == StatusLoading || to == StatusLoaded || to == StatusLoadFailed
	case StatusLoaded, StatusLoadFailed:
		return to == StatusLoading
	default:
		return false
	}
}

// canNavigate reports whether navigation buttons may act in status.
func canNavigate(status Status) bool {
	return status == StatusLoaded || status == StatusLoading
}
