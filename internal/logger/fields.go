package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	FieldService      = "service"
	FieldComponent    = "component"
	FieldJobID        = "job_id"
	FieldDocumentID   = "document_id"
	FieldExtractionID = "extraction_id"
	FieldCorrectionID = "correction_id"
	FieldWorkerID     = "worker_id"
)

// Metric fields, attached per log line.
const (
	FieldDurationMs = "duration_ms"
	FieldStatus     = "status"
	FieldFromStatus = "from_status"
	FieldTerminal   = "terminal"
	FieldErrorCode  = "error_code"
	FieldCount      = "count"
)
