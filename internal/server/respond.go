package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"trade-reconcile-service/internal/dataset"
	"trade-reconcile-service/internal/loader"
	apperrors "trade-reconcile-service/pkg/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// writeJSON serializes v as the response body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("failed to encode response")
	}
}

// writeError maps an application error to its status code and a structured
// JSON body. Errors outside the taxonomy respond as 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	appErr := apperrors.WrapIfNeeded(err, apperrors.CategoryEngine, apperrors.CodeInternal,
		"request failed")

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	} else {
		s.log.WithError(err).Warn("request rejected")
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status": "error",
		"error":  appErr,
	})
}

// writeWorkbook streams xlsx bytes as a file attachment.
func (s *Server) writeWorkbook(w http.ResponseWriter, filename string, xlsx []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(xlsx); err != nil {
		s.log.WithError(err).Error("failed to stream workbook")
	}
}

// loadUpload reads one multipart file field and parses it into a dataset.
func (s *Server) loadUpload(r *http.Request, field string) (*dataset.Dataset, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", apperrors.InvalidConfig(field, "", "file upload is required")
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, "", apperrors.ParseError(header.Filename, err)
	}

	ds, err := loader.Load(header.Filename, raw, loader.Options{})
	if err != nil {
		return nil, "", err
	}
	return ds, header.Filename, nil
}

// formValue returns a form field with a default for the empty case.
func formValue(r *http.Request, field, fallback string) string {
	if v := r.FormValue(field); v != "" {
		return v
	}
	return fallback
}

// formInt parses an integer form field with a default for the empty case.
func formInt(r *http.Request, field string, fallback int) (int, error) {
	v := r.FormValue(field)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.InvalidConfig(field, v, "must be an integer")
	}
	return n, nil
}

// formBool parses a boolean form field, defaulting to false.
func formBool(r *http.Request, field string) bool {
	v := r.FormValue(field)
	return v == "true" || v == "1"
}
