package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Tracing fields, propagated through the call chain
// ============================================

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldRunID identifies one batch or automation run
	FieldRunID = "run_id"

	// FieldAutomation is the automation name
	FieldAutomation = "automation"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldRecipient is the notification recipient
	FieldRecipient = "recipient"

	// FieldWorksheet is the log destination name
	FieldWorksheet = "worksheet"
)

// ============================================
// Metric fields, used for aggregation
// ============================================

const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldSucceeded  = "succeeded"
	FieldFailed     = "failed"
	FieldStatus     = "status"
)
