package constants

// ExtractionState is the lifecycle of a single extraction call.
// INIT -> FETCHING_TOKEN -> CALLING_API -> {SUCCESS | AUTH_FAILED | API_FAILED}
type ExtractionState string

// Stable values (these exact strings appear in logs).
const (
	StateInit          ExtractionState = "INIT"
	StateFetchingToken ExtractionState = "FETCHING_TOKEN"
	StateCallingAPI    ExtractionState = "CALLING_API"
	StateSuccess       ExtractionState = "SUCCESS"         // terminal
	StateAuthFailed    ExtractionState = "AUTH_FAILED"     // terminal
	StateAPIFailed     ExtractionState = "API_FAILED"      // terminal
	StateDocFailed     ExtractionState = "DOCUMENT_FAILED" // terminal: page text unavailable
	StateCanceled      ExtractionState = "CANCELED"        // terminal: caller went away
)

// IsTerminal reports whether no further transition can happen.
func (s ExtractionState) IsTerminal() bool {
	switch s {
	case StateSuccess, StateAuthFailed, StateAPIFailed, StateDocFailed, StateCanceled:
		return true
	}
	return false
}
