package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/csvexport"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/service"
)

// --- extraction ---

func newExtractionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extraction",
		Short: "Record and inspect original extraction output",
	}
	cmd.AddCommand(newExtractionRecordCmd(), newExtractionGetCmd())
	return cmd
}

func newExtractionRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Store the structured output of an extraction job",
		Long: `Store the structured output of an extraction job.

--data takes a JSON object, or @path to read it from a file, or @- for stdin.

Examples:
  ledgerctl extraction record --document 0190c0de-... --job 0190c0df-... --method tesseract --data '{"total":"12.50"}' --confidence 0.82
  ledgerctl extraction record --document 0190c0de-... --method azure --data @out.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := uuidFlag(cmd, "document")
			if err != nil {
				return err
			}
			jobID, err := optionalUUIDFlag(cmd, "job")
			if err != nil {
				return err
			}
			method, _ := cmd.Flags().GetString("method")
			data, err := payloadFlag(cmd, "data")
			if err != nil {
				return err
			}

			input := service.RecordExtractionInput{
				DocumentID:     docID,
				JobID:          jobID,
				Method:         domain.ExtractionMethod(method),
				StructuredData: data,
			}
			if cmd.Flags().Changed("confidence") {
				c, _ := cmd.Flags().GetFloat64("confidence")
				input.ConfidenceScore = &c
			}

			ext, err := ledger.extractions.RecordExtraction(cmd.Context(), input)
			if err != nil {
				return err
			}
			printSuccess("Recorded extraction %s", ext.ID)
			return printJSON(cmd.OutOrStdout(), ext)
		},
	}
	cmd.Flags().String("document", "", "document id (required)")
	cmd.Flags().String("job", "", "job that produced the output")
	cmd.Flags().String("method", "", "extraction method (required)")
	cmd.Flags().String("data", "", "structured data as JSON, @file or @- (required)")
	cmd.Flags().Float64("confidence", 0, "confidence score between 0 and 1")
	_ = cmd.MarkFlagRequired("document")
	_ = cmd.MarkFlagRequired("method")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newExtractionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <extraction-id>",
		Short: "Show the original output of an extraction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUID("extraction id", args[0])
			if err != nil {
				return err
			}
			ext, err := ledger.extractions.GetExtraction(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ext)
		},
	}
}

// --- correction ---

func newCorrectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correction",
		Short: "Manage the append-only correction ledger",
	}
	cmd.AddCommand(
		newCorrectionAppendCmd(),
		newCorrectionListCmd(),
		newCorrectionRejectedCmd("update", "Corrections are never updated; append a new one instead"),
		newCorrectionRejectedCmd("delete", "Corrections are never deleted; append a new one instead"),
	)
	return cmd
}

func newCorrectionAppendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append <extraction-id>",
		Short: "Append a human correction to an extraction",
		Long: `Append a human correction to an extraction. The newest correction
becomes the effective value; earlier ones stay in the ledger.

Example:
  ledgerctl correction append 0190c0e0-... --by reviewer@example.com --data '{"total":"12.05"}' --reason "OCR misread"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extID, err := parseUUID("extraction id", args[0])
			if err != nil {
				return err
			}
			data, err := payloadFlag(cmd, "data")
			if err != nil {
				return err
			}
			by, _ := cmd.Flags().GetString("by")

			input := service.AppendCorrectionInput{
				ExtractionID:   extID,
				StructuredData: data,
				CorrectedBy:    by,
			}
			if cmd.Flags().Changed("reason") {
				r, _ := cmd.Flags().GetString("reason")
				input.Reason = &r
			}
			if cmd.Flags().Changed("confidence") {
				c, _ := cmd.Flags().GetFloat64("confidence")
				input.ConfidenceOverride = &c
			}

			corr, err := ledger.corrections.AppendCorrection(cmd.Context(), input)
			if err != nil {
				return err
			}
			printSuccess("Appended correction %s to extraction %s", corr.ID, corr.ExtractionID)
			return printJSON(cmd.OutOrStdout(), corr)
		},
	}
	cmd.Flags().String("data", "", "corrected structured data as JSON, @file or @- (required)")
	cmd.Flags().String("by", "", "who made the correction (required)")
	cmd.Flags().String("reason", "", "why the correction was made")
	cmd.Flags().Float64("confidence", 0, "confidence override between 0 and 1")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func newCorrectionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <extraction-id>",
		Short: "List the correction history of an extraction, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extID, err := parseUUID("extraction id", args[0])
			if err != nil {
				return err
			}
			rows, err := ledger.corrections.ListCorrections(cmd.Context(), extID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
}

// newCorrectionRejectedCmd exposes update and delete so operators get the
// ledger's rejection rather than an unknown-command error.
func newCorrectionRejectedCmd(op, short string) *cobra.Command {
	return &cobra.Command{
		Use:   op + " <correction-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUID("correction id", args[0])
			if err != nil {
				return err
			}
			if op == "update" {
				return ledger.corrections.UpdateCorrection(cmd.Context(), id)
			}
			return ledger.corrections.DeleteCorrection(cmd.Context(), id)
		},
	}
}

// --- effective ---

func newEffectiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "effective",
		Short: "Read effective values (latest correction over the original)",
	}
	cmd.AddCommand(newEffectiveGetCmd(), newEffectiveListCmd())
	return cmd
}

func newEffectiveGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <extraction-id>",
		Short: "Show the effective value of an extraction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extID, err := parseUUID("extraction id", args[0])
			if err != nil {
				return err
			}
			v, err := ledger.values.GetEffectiveValue(cmd.Context(), extID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
}

func newEffectiveListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the effective values of a document",
		Long: `List the effective values of a document as JSON, or as CSV with --csv.

Examples:
  ledgerctl effective list --document 0190c0de-...
  ledgerctl effective list --document 0190c0de-... --csv > values.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := uuidFlag(cmd, "document")
			if err != nil {
				return err
			}
			values, err := ledger.values.ListByDocument(cmd.Context(), docID)
			if err != nil {
				return err
			}

			asCSV, _ := cmd.Flags().GetBool("csv")
			if !asCSV {
				return printJSON(cmd.OutOrStdout(), values)
			}
			return writeEffectiveCSV(cmd.OutOrStdout(), values)
		},
	}
	cmd.Flags().String("document", "", "document id (required)")
	cmd.Flags().Bool("csv", false, "write CSV instead of JSON")
	_ = cmd.MarkFlagRequired("document")
	return cmd
}

func writeEffectiveCSV(w io.Writer, values []domain.EffectiveValue) error {
	if _, err := w.Write(csvexport.BOM); err != nil {
		return err
	}
	cw := csvexport.NewWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	if err := cw.WriteEffectiveValues(values); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// --- report ---

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "SLA and effective value reports",
	}
	cmd.AddCommand(newReportSLACmd(), newReportExportCmd())
	return cmd
}

func newReportSLACmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sla",
		Short: "Summarize job outcomes and timing per SLA class and method",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			since, err := sinceFlag(cmd)
			if err != nil {
				return err
			}
			rows, err := ledger.reports.SLAReport(cmd.Context(), since)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().String("since", "24h", "window start as a duration back from now or an RFC 3339 time")
	return cmd
}

func newReportExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an XLSX workbook",
		Long: `Write an XLSX workbook: the effective values and correction history of a
document with --document, or the SLA report otherwise.

Examples:
  ledgerctl report export --document 0190c0de-...
  ledgerctl report export --since 168h -o weekly_sla.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := optionalUUIDFlag(cmd, "document")
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("output")

			var data []byte
			if docID != nil {
				data, err = ledger.reports.ExportEffectiveValuesXLSX(cmd.Context(), *docID)
				if out == "" {
					out = csvexport.BuildFilename("effective_values_"+docID.String(), "xlsx")
				}
			} else {
				var since time.Time
				since, err = sinceFlag(cmd)
				if err != nil {
					return err
				}
				data, err = ledger.reports.ExportSLAReportXLSX(cmd.Context(), since)
				if out == "" {
					out = csvexport.BuildFilename("sla_report", "xlsx")
				}
			}
			if err != nil {
				return err
			}

			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			printSuccess("Wrote %s (%d bytes)", out, len(data))
			return nil
		},
	}
	cmd.Flags().String("document", "", "export effective values of this document")
	cmd.Flags().String("since", "24h", "SLA window start as a duration back from now or an RFC 3339 time")
	cmd.Flags().StringP("output", "o", "", "output file (defaults to a dated name in the working directory)")
	return cmd
}

// --- helpers ---

// payloadFlag reads a JSON payload given inline, as @path, or as @- for stdin.
func payloadFlag(cmd *cobra.Command, name string) (json.RawMessage, error) {
	v, _ := cmd.Flags().GetString(name)
	if !strings.HasPrefix(v, "@") {
		return json.RawMessage(v), nil
	}

	var (
		data []byte
		err  error
	)
	if v == "@-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(v[1:])
	}
	if err != nil {
		return nil, fmt.Errorf("reading --%s: %w", name, err)
	}
	return json.RawMessage(bytes.TrimSpace(data)), nil
}

func sinceFlag(cmd *cobra.Command) (time.Time, error) {
	v, _ := cmd.Flags().GetString("since")
	if d, err := time.ParseDuration(v); err == nil {
		return time.Now().Add(-d).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: want a duration like 24h or an RFC 3339 time", v)
	}
	return t.UTC(), nil
}
