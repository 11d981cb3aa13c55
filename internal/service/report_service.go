package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/domain"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/logger"
	"github.com/ousma15abdoulaye-crypto/decision-memory-v1-sub001/internal/port"
)

const (
	sheetEffectiveValues = "Effective Values"
	sheetCorrections     = "Corrections"
	sheetSLA             = "SLA"

	// maxParallelLookups bounds concurrent correction-history queries per export.
	maxParallelLookups = 4
)

// ReportService builds read-side reports over the ledgers.
type ReportService interface {
	SLAReport(ctx context.Context, since time.Time) ([]domain.SLAReportRow, error)
	ExportSLAReportXLSX(ctx context.Context, since time.Time) ([]byte, error)
	// ExportEffectiveValuesXLSX returns a workbook with the effective value of
	// every extraction of the document and the full correction history.
	ExportEffectiveValuesXLSX(ctx context.Context, documentID uuid.UUID) ([]byte, error)
}

type reportService struct {
	reports     port.ReportRepository
	values      port.EffectiveValueRepository
	corrections port.CorrectionRepository
}

// NewReportService creates a new ReportService implementation.
func NewReportService(
	reports port.ReportRepository,
	values port.EffectiveValueRepository,
	corrections port.CorrectionRepository,
) ReportService {
	return &reportService{reports: reports, values: values, corrections: corrections}
}

func (s *reportService) SLAReport(ctx context.Context, since time.Time) ([]domain.SLAReportRow, error) {
	return s.reports.SLAReport(ctx, since)
}

func (s *reportService) ExportSLAReportXLSX(ctx context.Context, since time.Time) ([]byte, error) {
	rows, err := s.reports.SLAReport(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("reportService.ExportSLAReportXLSX: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := useSheet(f, sheetSLA); err != nil {
		return nil, err
	}
	writeRow(f, sheetSLA, 1, "SLA Class", "Method", "Total", "Done", "Failed", "Avg Duration (ms)", "Max Duration (ms)")
	for i, r := range rows {
		writeRow(f, sheetSLA, i+2,
			string(r.SLAClass), string(r.Method), r.Total, r.Done, r.Failed,
			optional(r.AvgDurationMs), optional(r.MaxDurationMs))
	}
	_ = f.SetColWidth(sheetSLA, "A", "B", 14)
	_ = f.SetColWidth(sheetSLA, "F", "G", 18)

	return workbookBytes(f)
}

func (s *reportService) ExportEffectiveValuesXLSX(ctx context.Context, documentID uuid.UUID) ([]byte, error) {
	start := time.Now()

	values, err := s.values.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("reportService.ExportEffectiveValuesXLSX: %w", err)
	}

	history := make([][]domain.ExtractionCorrection, len(values))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLookups)
	for i := range values {
		if values[i].CorrectionCount == 0 {
			continue
		}
		g.Go(func() error {
			rows, err := s.corrections.ListByExtraction(gctx, values[i].ExtractionID)
			if err != nil {
				return err
			}
			history[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reportService.ExportEffectiveValuesXLSX: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := useSheet(f, sheetEffectiveValues); err != nil {
		return nil, err
	}
	writeRow(f, sheetEffectiveValues, 1,
		"Extraction ID", "Method", "Extracted At", "Structured Data", "Confidence",
		"Corrected", "Corrected By", "Corrected At", "Reason", "Corrections")
	for i, v := range values {
		writeRow(f, sheetEffectiveValues, i+2,
			v.ExtractionID.String(), string(v.Method), v.ExtractedAt.UTC().Format(time.RFC3339),
			string(v.StructuredData), optional(v.ConfidenceScore), v.IsCorrected(),
			optional(v.CorrectedBy), formatOptionalTime(v.CorrectedAt), optional(v.CorrectionReason),
			v.CorrectionCount)
	}
	_ = f.SetColWidth(sheetEffectiveValues, "A", "A", 38)
	_ = f.SetColWidth(sheetEffectiveValues, "D", "D", 60)
	_ = f.SetColWidth(sheetEffectiveValues, "G", "I", 24)

	if _, err := f.NewSheet(sheetCorrections); err != nil {
		return nil, err
	}
	writeRow(f, sheetCorrections, 1,
		"Extraction ID", "Correction ID", "Corrected At", "Corrected By", "Reason",
		"Confidence Override", "Structured Data")
	row := 2
	for _, rows := range history {
		for _, c := range rows {
			writeRow(f, sheetCorrections, row,
				c.ExtractionID.String(), c.ID.String(), c.CorrectedAt.UTC().Format(time.RFC3339),
				c.CorrectedBy, optional(c.CorrectionReason), optional(c.ConfidenceOverride),
				string(c.StructuredData))
			row++
		}
	}
	_ = f.SetColWidth(sheetCorrections, "A", "B", 38)
	_ = f.SetColWidth(sheetCorrections, "G", "G", 60)

	out, err := workbookBytes(f)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldDocumentID: documentID,
		logger.FieldCount:      len(values),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("reportService.ExportEffectiveValuesXLSX: export built")
	return out, nil
}

// useSheet renames the default sheet so the workbook opens on name.
func useSheet(f *excelize.File, name string) error {
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	f.SetActiveSheet(0)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// optional dereferences p for a spreadsheet cell; nil becomes an empty cell.
func optional[T any](p *T) any {
	if p == nil {
		return ""
	}
	return *p
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
