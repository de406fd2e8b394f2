package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/snaptoflash/backend/apimodels"
	"github.com/snaptoflash/backend/internal/analyzer"
	"github.com/snaptoflash/backend/internal/export"
	"github.com/snaptoflash/backend/internal/metrics"
)

// multipart parts beyond this size spill to temp files, which are removed
// before the handler returns
const multipartMemory = 8 << 20

var errEmptyUpload = errors.New("image is empty")

// handleAnalyzePage always answers 200 with a well-formed analysis. Failures
// only show up as warnings and needs_review on a stub payload.
func (s *Server) handleAnalyzePage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, uploadErr := s.readUpload(w, r)
	pageID := req.EffectivePageID()
	slog.Info("Analyze page request received", "page_id", pageID, "image_bytes", len(req.Image))

	resp, outcome := s.analyze(r.Context(), req, uploadErr)
	if err := s.validate.Struct(resp); err != nil {
		slog.Error("Analysis violates response contract", "page_id", pageID, "error", err)
		resp = analyzer.Stub(pageID, fmt.Sprintf("Invalid analysis (%v); returning stub.", err))
		outcome = metrics.OutcomeStubInvalid
	}
	s.metrics.ObserveRequest(outcome, len(resp.Notes))

	slog.Info("Analyze page request completed",
		"page_id", resp.PageID,
		"outcome", outcome,
		"notes", len(resp.Notes),
		"needs_review", resp.NeedsReview,
		"duration", time.Since(start),
	)

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		writeCSV(w, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) analyze(ctx context.Context, req apimodels.AnalysisRequest, uploadErr error) (*apimodels.AnalysisResponse, string) {
	pageID := req.EffectivePageID()
	if !s.analyzer.Enabled() {
		return analyzer.Stub(pageID, analyzer.WarningNoCredential), metrics.OutcomeStubConfig
	}
	if uploadErr != nil {
		slog.Warn("Unusable upload", "page_id", pageID, "error", uploadErr)
		return analyzer.Stub(pageID, analyzer.UploadWarning(uploadErr.Error())), metrics.OutcomeStubUpload
	}

	resp, err := s.analyzer.Analyze(ctx, req)
	if err == nil {
		return resp, metrics.OutcomeOK
	}

	var aerr *analyzer.Error
	if !errors.As(err, &aerr) {
		aerr = &analyzer.Error{Kind: analyzer.KindInternal, Msg: "internal error", Err: err}
	}
	switch aerr.Kind {
	case analyzer.KindConfigurationAbsent:
		return analyzer.Stub(pageID, analyzer.WarningNoCredential), metrics.OutcomeStubConfig
	default:
		slog.Error("Page analysis failed; returning stub",
			"page_id", pageID,
			"kind", aerr.Kind,
			"equivalent_status", aerr.HTTPStatus(),
			"error", aerr,
		)
		return analyzer.Stub(pageID, analyzer.FailureWarning(aerr)), metrics.OutcomeStubFailure
	}
}

// readUpload extracts the image and page id. The returned request is usable
// for its page id even when an error is reported.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (apimodels.AnalysisRequest, error) {
	var req apimodels.AnalysisRequest

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit)
		}
		return req, fmt.Errorf("bad multipart form: %w", err)
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	req.PageID = strings.TrimSpace(r.FormValue("page_id"))

	file, header, err := r.FormFile("image")
	if err != nil {
		return req, fmt.Errorf("missing image: %w", err)
	}
	defer file.Close()
	req.Filename = header.Filename

	req.Image, err = io.ReadAll(file)
	if err != nil {
		return req, fmt.Errorf("read image: %w", err)
	}
	if len(req.Image) == 0 {
		return req, errEmptyUpload
	}
	return req, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeCSV(w http.ResponseWriter, resp *apimodels.AnalysisResponse) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, export.SanitizedFilename(resp.PageID)))
	w.Header().Set("X-Needs-Review", strconv.FormatBool(resp.NeedsReview))
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, resp.Notes); err != nil {
		slog.Error("Failed to write CSV response", "error", err)
	}
}
