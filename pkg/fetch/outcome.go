package fetch

// Identifier names one remote resource to fetch. It is opaque to the
// dispatcher; callers may use numeric IDs rendered as strings.
type Identifier string

// Class tags the terminal state of one dispatch.
type Class string

const (
	// ClassSuccess means the resource was fetched and its payload parsed.
	ClassSuccess Class = "success"

	// ClassSoftFailure means the endpoint responded with a non-200 status.
	ClassSoftFailure Class = "soft_failure"

	// ClassHardFailure means the request did not complete (timeout,
	// transport fault, or unparsable payload).
	ClassHardFailure Class = "hard_failure"
)

// Outcome is the terminal result of dispatching one identifier.
// Exactly one Outcome exists per dispatched identifier; failures are
// data here, never propagated errors.
type Outcome struct {
	Identifier Identifier
	Class      Class

	// Payload holds the decoded JSON body. Set only on success.
	Payload map[string]any

	// StatusCode is the HTTP status. Set on success and soft failure.
	StatusCode int

	// Cause describes what went wrong. Set only on hard failure.
	Cause error
}

// Success builds a success outcome.
func Success(id Identifier, status int, payload map[string]any) Outcome {
	return Outcome{Identifier: id, Class: ClassSuccess, StatusCode: status, Payload: payload}
}

// SoftFailure builds an outcome for a non-200 response.
func SoftFailure(id Identifier, status int) Outcome {
	return Outcome{Identifier: id, Class: ClassSoftFailure, StatusCode: status}
}

// HardFailure builds an outcome for a transport-level fault.
func HardFailure(id Identifier, cause error) Outcome {
	return Outcome{Identifier: id, Class: ClassHardFailure, Cause: cause}
}

// IsSuccess reports whether the outcome carries a payload.
func (o Outcome) IsSuccess() bool {
	return o.Class == ClassSuccess
}

// Failed reports whether the outcome is a soft or hard failure.
func (o Outcome) Failed() bool {
	return o.Class != ClassSuccess
}
