package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldMachineID = "machine_id"
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"
	FieldComponent = "component"

	// Transition fields
	FieldEvent    = "event"
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldAction   = "action"
	FieldActions  = "actions"
	FieldGuard    = "guard"
	FieldReason   = "reason"

	// Conformance fields
	FieldScenario = "scenario"
	FieldSource   = "source"
	FieldStep     = "step"

	// Path / network fields
	FieldPath   = "path"
	FieldListen = "listen"
)
