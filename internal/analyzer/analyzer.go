package analyzer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/snaptoflash/backend/apimodels"
	"github.com/snaptoflash/backend/internal/llm"
)

const fallbackImageMIME = "image/jpeg"

var errEmptyImage = errors.New("image is empty")

// LatencyObserver is told how long each model call took and whether it
// succeeded ("ok", "error" or "malformed").
type LatencyObserver func(result string, d time.Duration)

type Analyzer struct {
	llmProvider llm.Provider
	llmOptions  []llm.Option
	schema      map[string]interface{}
	observe     LatencyObserver
}

type Option func(*Analyzer)

func WithLLMOptions(opts ...llm.Option) Option {
	return func(a *Analyzer) {
		a.llmOptions = append(a.llmOptions, opts...)
	}
}

func WithLatencyObserver(fn LatencyObserver) Option {
	return func(a *Analyzer) {
		if fn != nil {
			a.observe = fn
		}
	}
}

// New builds the pipeline. A nil provider puts it in stub-only mode: every
// Analyze call reports KindConfigurationAbsent.
func New(llmProvider llm.Provider, opts ...Option) (*Analyzer, error) {
	schema, err := ResponseSchema()
	if err != nil {
		return nil, err
	}
	a := &Analyzer{
		llmProvider: llmProvider,
		schema:      schema,
		observe:     func(string, time.Duration) {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Enabled reports whether a remote capability is configured.
func (a *Analyzer) Enabled() bool {
	return a.llmProvider != nil
}

// Analyze runs one page through the model and normalizes the result. On
// failure the error is always an *Error; the caller decides how to degrade.
func (a *Analyzer) Analyze(ctx context.Context, req apimodels.AnalysisRequest) (resp *apimodels.AnalysisResponse, err error) {
	pageID := req.EffectivePageID()
	if a.llmProvider == nil {
		return nil, errConfigurationAbsent()
	}
	if len(req.Image) == 0 {
		return nil, errInternal(errEmptyImage)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Page analysis panicked", "page_id", pageID, "panic", r)
			resp, err = nil, errInternal(fmt.Errorf("panic: %v", r))
		}
	}()

	slog.Info("Starting page analysis", "page_id", pageID, "image_bytes", len(req.Image))
	startTime := time.Now()

	llmResp, err := a.llmProvider.Complete(ctx, llm.Request{
		System:       SystemPrompt,
		User:         UserPrompt,
		ImageDataURL: imageDataURL(req.Image),
		Schema:       a.schema,
		SchemaName:   SchemaName,
	}, a.llmOptions...)
	if err != nil {
		a.observe("error", time.Since(startTime))
		slog.Error("LLM request failed", "page_id", pageID, "error", err)
		return nil, errRemote(err)
	}

	doc, err := parseModelJSON(llmResp.Content)
	if err != nil {
		a.observe("malformed", time.Since(startTime))
		slog.Warn("LLM output could not be parsed", "page_id", pageID, "error", err)
		return nil, errMalformed(llmResp.Content, err)
	}
	a.observe("ok", time.Since(startTime))

	resp = normalizeResponse(doc, pageID)
	slog.Info("Page analysis completed",
		"page_id", resp.PageID,
		"notes", len(resp.Notes),
		"tokens", llmResp.Usage.TotalTokens,
		"duration", time.Since(startTime),
	)
	return resp, nil
}

// imageDataURL encodes the upload for transport. Content that is not
// recognizably an image is labeled JPEG, which is what clients send.
func imageDataURL(img []byte) string {
	mime := mimetype.Detect(img).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		mime = fallbackImageMIME
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img)
}
