package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"trade-reconcile-service/internal/classify"
	"trade-reconcile-service/internal/dataset"
	"trade-reconcile-service/internal/export"
	"trade-reconcile-service/internal/resultcache"
	apperrors "trade-reconcile-service/pkg/errors"
)

// handleDuplicatesSingle groups one file by (instrument, rounded amount)
// and reports groups repeated at least min_repeats times. The full export
// is cached under the returned token.
//
// Form fields: file1 (upload), paper_col, amount_col, min_repeats (>= 2),
// round_to (0..6).
func (s *Server) handleDuplicatesSingle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, apperrors.ParseError("request body", err))
		return
	}

	minRepeats, err := formInt(r, "min_repeats", 2)
	if err != nil {
		s.writeError(w, err)
		return
	}
	roundTo, err := formInt(r, "round_to", 2)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ds, _, err := s.loadUpload(r, "file1")
	if err != nil {
		s.writeError(w, err)
		return
	}

	report, err := classify.Duplicates(ds, &classify.DuplicateConfig{
		InstrumentColumn: formValue(r, "paper_col", "Ценная бумага"),
		AmountColumn:     formValue(r, "amount_col", "Сумма в валюте"),
		MinRepeats:       minRepeats,
		RoundTo:          roundTo,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	sheets := []export.Sheet{duplicateSummarySheet(report.Groups)}
	if rows := export.RecordSheet("DuplicatedRows", report.Rows); !rows.Empty() {
		sheets = append(sheets, rows)
	}

	token, err := s.cacheWorkbook(r, "duplicates_export.xlsx", sheets)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"token":   token,
		"columns": []string{"paper_key", "amount", "count"},
		"summary": report.Groups,
		"found":   len(report.Groups),
	})
}

// handleAmountPaperTwoFiles reports (instrument, rounded amount) groups
// present in exactly one of the two uploaded files.
//
// Form fields: file1, file2 (uploads), paper1_col, amount1_col, paper2_col,
// amount2_col, round_to (0..6).
func (s *Server) handleAmountPaperTwoFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, apperrors.ParseError("request body", err))
		return
	}

	roundTo, err := formInt(r, "round_to", 2)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ds1, _, ds2, _, err := s.loadPair(r, "file1", "file2")
	if err != nil {
		s.writeError(w, err)
		return
	}

	report, err := classify.CrossFile(ds1, ds2, &classify.CrossFileConfig{
		InstrumentColumn1: formValue(r, "paper1_col", "Ценная бумага"),
		AmountColumn1:     formValue(r, "amount1_col", "Сумма в валюте"),
		InstrumentColumn2: formValue(r, "paper2_col", "Instrument"),
		AmountColumn2:     formValue(r, "amount2_col", "Amount"),
		RoundTo:           roundTo,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.cacheWorkbook(r, "export_amount_paper_two_files.xlsx",
		[]export.Sheet{crossFileSheet(report.Discrepancies)})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"token":   token,
		"columns": []string{"paper_key", "amount", "count_file1", "count_file2"},
		"summary": report.Discrepancies,
	})
}

// handleInstrumentDirection compares per-(instrument, direction) counts
// between the two uploaded files under the standard operation/side
// equivalence tables.
//
// Form fields: file1, file2 (uploads), col1, op1_col, col2, side2_col.
func (s *Server) handleInstrumentDirection(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, apperrors.ParseError("request body", err))
		return
	}

	ds1, _, ds2, _, err := s.loadPair(r, "file1", "file2")
	if err != nil {
		s.writeError(w, err)
		return
	}

	report, err := classify.Direction(ds1, ds2, &classify.DirectionConfig{
		InstrumentColumn1: formValue(r, "col1", "Ценная бумага"),
		OperationColumn1:  formValue(r, "op1_col", "Тип операции ФИ"),
		InstrumentColumn2: formValue(r, "col2", "Instrument"),
		SideColumn2:       formValue(r, "side2_col", "Side"),
		OperationMap:      classify.DefaultOperationMap(),
		SideMap:           classify.DefaultSideMap(),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.cacheWorkbook(r, "export_instrument_direction.xlsx",
		[]export.Sheet{directionSheet(report.Summary)})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"token":   token,
		"columns": []string{"instrument_key", "direction", "count_file1", "count_file2", "diff_file1_minus_file2"},
		"summary": report.Summary,
	})
}

// handleDownload streams a cached export. Unknown and expired tokens
// respond 404.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	payload, err := s.cache.Get(r.Context(), token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeWorkbook(w, payload.Filename, payload.XLSX)
}

// cacheWorkbook renders the sheets and stores the workbook, returning the
// download token.
func (s *Server) cacheWorkbook(r *http.Request, filename string, sheets []export.Sheet) (string, error) {
	xlsx, err := export.Workbook(sheets)
	if err != nil {
		return "", err
	}
	return s.cache.Put(r.Context(), resultcache.Payload{
		Filename: filename,
		XLSX:     xlsx,
	})
}

func duplicateSummarySheet(groups []classify.DuplicateGroup) export.Sheet {
	sheet := export.Sheet{
		Name:    "DuplicatesSummary",
		Columns: []string{"PaperKey", "Amount", "Count"},
	}
	for _, g := range groups {
		sheet.Rows = append(sheet.Rows, []dataset.Value{
			dataset.TextValue(g.Instrument),
			dataset.NumberValue(g.Amount),
			intValue(g.Count),
		})
	}
	return sheet
}

func crossFileSheet(discrepancies []classify.CrossFileDiscrepancy) export.Sheet {
	sheet := export.Sheet{
		Name:    "Summary",
		Columns: []string{"PaperKey", "Amount", "CountFile1", "CountFile2"},
	}
	for _, d := range discrepancies {
		sheet.Rows = append(sheet.Rows, []dataset.Value{
			dataset.TextValue(d.Instrument),
			dataset.NumberValue(d.Amount),
			intValue(d.CountFile1),
			intValue(d.CountFile2),
		})
	}
	return sheet
}

func directionSheet(rows []classify.DirectionRow) export.Sheet {
	sheet := export.Sheet{
		Name:    "Summary",
		Columns: []string{"InstrumentKey", "Direction", "CountFile1", "CountFile2", "Diff"},
	}
	for _, row := range rows {
		sheet.Rows = append(sheet.Rows, []dataset.Value{
			dataset.TextValue(row.Instrument),
			dataset.TextValue(row.Direction),
			intValue(row.CountFile1),
			intValue(row.CountFile2),
			intValue(row.Diff),
		})
	}
	return sheet
}

func intValue(n int) dataset.Value {
	return dataset.NumberValue(decimal.NewFromInt(int64(n)))
}
