package domain

// JobStatus represents the lifecycle of a single extraction attempt.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// AllJobStatuses lists every status in lifecycle order.
var AllJobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusProcessing,
	JobStatusDone,
	JobStatusFailed,
}

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusDone, JobStatusFailed:
		return true
	}
	return false
}

// ExtractionMethod identifies the extractor used for a job. Fixed at creation.
type ExtractionMethod string

const (
	MethodNativePDF   ExtractionMethod = "native_pdf"
	MethodExcelParser ExtractionMethod = "excel_parser"
	MethodDocxParser  ExtractionMethod = "docx_parser"
	MethodTesseract   ExtractionMethod = "tesseract"
	MethodAzure       ExtractionMethod = "azure"
)

// AllExtractionMethods lists every supported extraction method.
var AllExtractionMethods = []ExtractionMethod{
	MethodNativePDF,
	MethodExcelParser,
	MethodDocxParser,
	MethodTesseract,
	MethodAzure,
}

// Valid reports whether m is a known extraction method.
func (m ExtractionMethod) Valid() bool {
	for _, known := range AllExtractionMethods {
		if m == known {
			return true
		}
	}
	return false
}

// DefaultSLAClass returns the service tier a method normally runs under:
// native parsers are synchronous (A), OCR-bound methods are asynchronous (B).
func (m ExtractionMethod) DefaultSLAClass() SLAClass {
	switch m {
	case MethodNativePDF, MethodExcelParser, MethodDocxParser:
		return SLAClassA
	default:
		return SLAClassB
	}
}

// SLAClass is the service-level tier of a job.
type SLAClass string

const (
	SLAClassA SLAClass = "A"
	SLAClassB SLAClass = "B"
)

// Valid reports whether c is a known SLA class.
func (c SLAClass) Valid() bool {
	return c == SLAClassA || c == SLAClassB
}

// ErrorCode classifies an extraction failure recorded in the error ledger.
type ErrorCode string

const (
	ErrorCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrorCodeCorruptFile       ErrorCode = "CORRUPT_FILE"
	ErrorCodeOCRFailed         ErrorCode = "OCR_FAILED"
	ErrorCodeTimeoutSLAA       ErrorCode = "TIMEOUT_SLA_A"
	ErrorCodeLowConfidence     ErrorCode = "LOW_CONFIDENCE"
	ErrorCodeEmptyContent      ErrorCode = "EMPTY_CONTENT"
	ErrorCodeParseError        ErrorCode = "PARSE_ERROR"
)

// AllErrorCodes lists every failure classification.
var AllErrorCodes = []ErrorCode{
	ErrorCodeUnsupportedFormat,
	ErrorCodeCorruptFile,
	ErrorCodeOCRFailed,
	ErrorCodeTimeoutSLAA,
	ErrorCodeLowConfidence,
	ErrorCodeEmptyContent,
	ErrorCodeParseError,
}

// Valid reports whether c is a known error code.
func (c ErrorCode) Valid() bool {
	for _, known := range AllErrorCodes {
		if c == known {
			return true
		}
	}
	return false
}

// Transient reports whether an automated retry of the job can plausibly
// succeed for this failure class.
func (c ErrorCode) Transient() bool {
	return c == ErrorCodeTimeoutSLAA || c == ErrorCodeOCRFailed
}

// RequiresHumanByDefault reports whether a failure of this class should be
// routed to human review when the caller does not say otherwise.
func (c ErrorCode) RequiresHumanByDefault() bool {
	return !c.Transient()
}
