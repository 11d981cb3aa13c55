package csvexport

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (12 columns).
var columns = []string{
	"Extraction ID",
	"Document ID",
	"Job ID",
	"Method",
	"Extracted At",
	"Confidence",
	"Corrected",
	"Corrected By",
	"Corrected At",
	"Correction Reason",
	"Correction Count",
	"Structured Data",
}

// Writer wraps csv.Writer for exporting effective values as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the 12-column header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteEffectiveValues converts a batch of effective values to CSV rows and writes them.
func (w *Writer) WriteEffectiveValues(values []domain.EffectiveValue) error {
	for i := range values {
		if err := w.csv.Write(effectiveValueToRow(&values[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func effectiveValueToRow(v *domain.EffectiveValue) []string {
	row := make([]string, len(columns))

	row[0] = v.ExtractionID.String()
	row[1] = v.DocumentID.String()
	if v.JobID != nil {
		row[2] = v.JobID.String()
	}
	row[3] = string(v.Method)
	row[4] = v.ExtractedAt.UTC().Format(time.RFC3339)
	if v.ConfidenceScore != nil {
		row[5] = strconv.FormatFloat(*v.ConfidenceScore, 'f', -1, 64)
	}
	row[6] = formatBool(v.IsCorrected())
	if v.CorrectedBy != nil {
		row[7] = *v.CorrectedBy
	}
	row[8] = formatTime(v.CorrectedAt)
	if v.CorrectionReason != nil {
		row[9] = *v.CorrectionReason
	}
	row[10] = strconv.Itoa(v.CorrectionCount)
	row[11] = compactJSON(v.StructuredData)

	return row
}

// compactJSON renders the payload on one line with object keys sorted.
// Invalid JSON is written as-is.
func compactJSON(data json.RawMessage) string {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return string(data)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return string(data)
	}
	return string(out)
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use as an export file name.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized export file name.
// Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), time.Now().Format("2006-01-02"), ext)
}
