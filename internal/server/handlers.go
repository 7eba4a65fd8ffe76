package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"trade-reconcile-service/internal/classify"
	"trade-reconcile-service/internal/dataset"
	"trade-reconcile-service/internal/engine"
	"trade-reconcile-service/internal/export"
	"trade-reconcile-service/internal/matcher"
	"trade-reconcile-service/internal/settings"
	apperrors "trade-reconcile-service/pkg/errors"
)

// handleCompare runs the full two-file reconciliation and returns the
// report inline.
//
// Form fields: file1, file2 (uploads), id_col_1, id_col_2 (default: first
// matching id alias from settings), acc_col_1, acc_col_2 (default: the
// settings aliases), account_in_key, settings_json.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, apperrors.ParseError("request body", err))
		return
	}

	bundle, err := settings.Decode([]byte(r.FormValue("settings_json")))
	if err != nil {
		s.writeError(w, err)
		return
	}

	ds1, label1, ds2, label2, err := s.loadPair(r, "file1", "file2")
	if err != nil {
		s.writeError(w, err)
		return
	}

	mapping := matcher.ColumnMapping{
		IDColumn1:      formValue(r, "id_col_1", bundle.ResolveIDColumn(ds1.Columns())),
		IDColumn2:      formValue(r, "id_col_2", bundle.ResolveIDColumn(ds2.Columns())),
		AccountColumn1: formValue(r, "acc_col_1", bundle.DefaultAccColumn1),
		AccountColumn2: formValue(r, "acc_col_2", bundle.DefaultAccColumn2),
		AccountInKey:   formBool(r, "account_in_key"),
	}

	report, err := s.engine.Compare(r.Context(), engine.CompareRequest{
		File1:    ds1,
		File2:    ds2,
		Label1:   label1,
		Label2:   label2,
		Mapping:  mapping,
		Settings: bundle,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"report": report,
	})
}

// loadPair reads and parses two uploads concurrently.
func (s *Server) loadPair(r *http.Request, field1, field2 string) (*dataset.Dataset, string, *dataset.Dataset, string, error) {
	var (
		wg             sync.WaitGroup
		ds1, ds2       *dataset.Dataset
		label1, label2 string
		err1, err2     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		ds1, label1, err1 = s.loadUpload(r, field1)
	}()
	go func() {
		defer wg.Done()
		ds2, label2, err2 = s.loadUpload(r, field2)
	}()
	wg.Wait()

	if err1 != nil {
		return nil, "", nil, "", err1
	}
	if err2 != nil {
		return nil, "", nil, "", err2
	}
	return ds1, label1, ds2, label2, nil
}

// handleExport turns a previously returned compare report back into a
// workbook, one sheet per non-empty bucket.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var report engine.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		s.writeError(w, apperrors.ParseError("report body", err))
		return
	}

	sheets := reportSheets(&report)
	if len(sheets) == 0 {
		s.writeError(w, apperrors.EmptyDataset("report"))
		return
	}

	xlsx, err := export.Workbook(sheets)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeWorkbook(w, "reconciliation_report.xlsx", xlsx)
}

// reportSheets collects the non-empty buckets of a compare report in
// presentation order.
func reportSheets(report *engine.Report) []export.Sheet {
	candidates := []export.Sheet{
		export.RecordSheet("Matches", report.Matches),
		export.RecordSheet("Unmatched File1", report.Unmatched1),
		export.RecordSheet("Unmatched File2", report.Unmatched2),
		export.RecordSheet("Duplicates File1", report.Duplicates1),
		export.RecordSheet("Duplicates File2", report.Duplicates2),
		export.RecordSheet("Threshold Flagged", report.PodftFlagged),
		export.RecordSheet("Crypto Flagged", report.CryptoFlagged),
	}

	var sheets []export.Sheet
	for _, sheet := range candidates {
		if !sheet.Empty() {
			sheets = append(sheets, sheet)
		}
	}
	return sheets
}

// handleCheckSplits joins an uploaded daily file against an uploaded split
// reference list. An empty match set is a success with empty data, not an
// error.
//
// Form fields: file (daily upload), splits (reference upload),
// settings_json.
func (s *Server) handleCheckSplits(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, apperrors.ParseError("request body", err))
		return
	}

	bundle, err := settings.Decode([]byte(r.FormValue("settings_json")))
	if err != nil {
		s.writeError(w, err)
		return
	}

	daily, _, err := s.loadUpload(r, "file")
	if err != nil {
		s.writeError(w, err)
		return
	}
	reference, _, err := s.loadUpload(r, "splits")
	if err != nil {
		s.writeError(w, err)
		return
	}

	matches, err := classify.Splits(daily, reference, &classify.SplitConfig{
		ReferenceISINColumn: bundle.SplitISINColumn,
		SecurityColumn:      bundle.SplitSecurityColumn,
		AccountColumn:       bundle.DefaultAccColumn2,
		QuantityColumn:      bundle.SplitQuantityColumn,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if matches == nil {
		matches = []classify.SplitMatch{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"found":  len(matches),
		"data":   matches,
	})
}
