package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/service"
)

// --- job ---

func newJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage extraction jobs",
	}
	cmd.AddCommand(
		newJobCreateCmd(),
		newJobGetCmd(),
		newJobListCmd(),
		newJobTransitionCmd(),
		newJobClaimCmd(),
		newJobFailCmd(),
		newJobRetryCmd(),
	)
	return cmd
}

func newJobCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Queue a new extraction job",
		Long: `Queue a new extraction job in pending status.

Examples:
  ledgerctl job create --document 0190c0de-... --method tesseract
  ledgerctl job create --document 0190c0de-... --method native_pdf --sla A --max-retries 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := uuidFlag(cmd, "document")
			if err != nil {
				return err
			}
			method, _ := cmd.Flags().GetString("method")
			sla, _ := cmd.Flags().GetString("sla")

			input := service.CreateJobInput{
				DocumentID: docID,
				Method:     domain.ExtractionMethod(method),
				SLAClass:   domain.SLAClass(strings.ToUpper(sla)),
			}
			if cmd.Flags().Changed("max-retries") {
				n, _ := cmd.Flags().GetInt("max-retries")
				input.MaxRetries = &n
			}

			job, err := ledger.jobs.CreateJob(cmd.Context(), input)
			if err != nil {
				return err
			}
			printSuccess("Queued job %s (%s, SLA %s)", job.ID, job.Method, job.SLAClass)
			return printJSON(cmd.OutOrStdout(), job)
		},
	}
	cmd.Flags().String("document", "", "document id (required)")
	cmd.Flags().String("method", "", "extraction method: native_pdf, excel_parser, docx_parser, tesseract, azure")
	cmd.Flags().String("sla", "", "SLA class A or B (defaults from the method)")
	cmd.Flags().Int("max-retries", 0, "retry budget (defaults from config)")
	_ = cmd.MarkFlagRequired("document")
	_ = cmd.MarkFlagRequired("method")
	return cmd
}

func newJobGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show one extraction job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUID("job id", args[0])
			if err != nil {
				return err
			}
			job, err := ledger.jobs.GetJob(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), job)
		},
	}
}

func newJobListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the jobs of a document, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := uuidFlag(cmd, "document")
			if err != nil {
				return err
			}
			jobs, err := ledger.jobs.ListJobsByDocument(cmd.Context(), docID)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				printWarning("No jobs for document %s", docID)
			}
			return printJSON(cmd.OutOrStdout(), jobs)
		},
	}
	cmd.Flags().String("document", "", "document id (required)")
	_ = cmd.MarkFlagRequired("document")
	return cmd
}

func newJobTransitionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transition <job-id> <status>",
		Short: "Move a job to another status",
		Long: `Move a job to another status.

Allowed transitions:
  pending    -> processing, failed
  processing -> done, failed
  failed     -> pending
  done is terminal.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUID("job id", args[0])
			if err != nil {
				return err
			}
			to := domain.JobStatus(strings.ToLower(args[1]))
			job, err := ledger.jobs.TransitionJob(cmd.Context(), id, to)
			if err != nil {
				return err
			}
			printSuccess("Job %s is %s", job.ID, job.Status)
			if job.IsTerminal() {
				printStatus("final", "no further status changes are allowed")
			}
			return printJSON(cmd.OutOrStdout(), job)
		},
	}
}

func newJobClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim <job-id>",
		Short: "Claim a pending job for a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUID("job id", args[0])
			if err != nil {
				return err
			}
			worker, _ := cmd.Flags().GetString("worker")
			if worker == "" {
				worker, _ = os.Hostname()
			}
			job, err := ledger.jobs.ClaimJob(cmd.Context(), id, worker)
			if err != nil {
				return err
			}
			printSuccess("Job %s claimed by %s", job.ID, worker)
			return printJSON(cmd.OutOrStdout(), job)
		},
	}
	cmd.Flags().String("worker", "", "worker id (defaults to the hostname)")
	return cmd
}

func newJobFailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fail <job-id>",
		Short: "Fail a job and record the classified reason",
		Long: `Fail a job and record the classified reason in the error ledger.

Error codes: UNSUPPORTED_FORMAT, CORRUPT_FILE, OCR_FAILED, TIMEOUT_SLA_A,
LOW_CONFIDENCE, EMPTY_CONTENT, PARSE_ERROR.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUID("job id", args[0])
			if err != nil {
				return err
			}
			code, _ := cmd.Flags().GetString("code")
			detail, _ := cmd.Flags().GetString("detail")

			input := service.FailJobInput{
				ErrorCode: domain.ErrorCode(strings.ToUpper(code)),
				Detail:    detail,
			}
			if cmd.Flags().Changed("requires-human") {
				v, _ := cmd.Flags().GetBool("requires-human")
				input.RequiresHuman = &v
			}

			job, err := ledger.jobs.FailJob(cmd.Context(), id, input)
			if err != nil {
				return err
			}
			printSuccess("Job %s failed with %s", job.ID, input.ErrorCode)
			if input.ErrorCode.Transient() && job.RetriesLeft() {
				printStatus("retry", "%d of %d used; 'ledgerctl job retry %s' requeues it", job.RetryCount, job.MaxRetries, job.ID)
			}
			return printJSON(cmd.OutOrStdout(), job)
		},
	}
	cmd.Flags().String("code", "", "error code (required)")
	cmd.Flags().String("detail", "", "failure detail (required)")
	cmd.Flags().Bool("requires-human", false, "route the failure to human review (defaults from the error code)")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("detail")
	return cmd
}

func newJobRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Requeue a failed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUID("job id", args[0])
			if err != nil {
				return err
			}
			job, err := ledger.jobs.RetryJob(cmd.Context(), id)
			if err != nil {
				return err
			}
			printSuccess("Job %s requeued (retry %d of %d)", job.ID, job.RetryCount, job.MaxRetries)
			return printJSON(cmd.OutOrStdout(), job)
		},
	}
}

// --- error ---

func newErrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "error",
		Short: "Manage the extraction error ledger",
	}
	cmd.AddCommand(newErrorRecordCmd(), newErrorListCmd())
	return cmd
}

func newErrorRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a classified extraction failure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := uuidFlag(cmd, "document")
			if err != nil {
				return err
			}
			jobID, err := optionalUUIDFlag(cmd, "job")
			if err != nil {
				return err
			}
			code, _ := cmd.Flags().GetString("code")
			detail, _ := cmd.Flags().GetString("detail")

			input := service.RecordErrorInput{
				DocumentID: docID,
				JobID:      jobID,
				ErrorCode:  domain.ErrorCode(strings.ToUpper(code)),
				Detail:     detail,
			}
			if cmd.Flags().Changed("requires-human") {
				v, _ := cmd.Flags().GetBool("requires-human")
				input.RequiresHuman = &v
			}

			rec, err := ledger.errors.RecordError(cmd.Context(), input)
			if err != nil {
				return err
			}
			printSuccess("Recorded %s for document %s", rec.ErrorCode, rec.DocumentID)
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().String("document", "", "document id (required)")
	cmd.Flags().String("job", "", "job id the failure belongs to")
	cmd.Flags().String("code", "", "error code (required)")
	cmd.Flags().String("detail", "", "failure detail (required)")
	cmd.Flags().Bool("requires-human", true, "route the failure to human review")
	_ = cmd.MarkFlagRequired("document")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("detail")
	return cmd
}

func newErrorListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded failures of a document or a job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := optionalUUIDFlag(cmd, "document")
			if err != nil {
				return err
			}
			jobID, err := optionalUUIDFlag(cmd, "job")
			if err != nil {
				return err
			}

			var rows []domain.ExtractionError
			switch {
			case jobID != nil:
				rows, err = ledger.errors.ListErrorsByJob(cmd.Context(), *jobID)
			case docID != nil:
				rows, err = ledger.errors.ListErrorsByDocument(cmd.Context(), *docID)
			default:
				return fmt.Errorf("one of --document or --job is required")
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().String("document", "", "document id")
	cmd.Flags().String("job", "", "job id")
	cmd.MarkFlagsMutuallyExclusive("document", "job")
	return cmd
}

// --- helpers ---

func parseUUID(what, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return id, nil
}

func uuidFlag(cmd *cobra.Command, name string) (uuid.UUID, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return uuid.Nil, fmt.Errorf("--%s is required", name)
	}
	return parseUUID(name+" id", v)
}

func optionalUUIDFlag(cmd *cobra.Command, name string) (*uuid.UUID, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return nil, nil
	}
	id, err := parseUUID(name+" id", v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
