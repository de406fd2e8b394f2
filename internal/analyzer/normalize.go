package analyzer

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/snaptoflash/backend/apimodels"
)

const (
	MaxNotes = 40

	defaultPageConfidence       = 0.7
	defaultNoteConfidence       = 0.5
	defaultAnnotationConfidence = 0.5

	unknownExpression = "Unknown"
	unknownMeaning    = "To fill"
)

// normalizeResponse turns whatever object the model produced into the fixed
// response contract. Every field ends up present and typed.
func normalizeResponse(doc gjson.Result, pageID string) *apimodels.AnalysisResponse {
	resp := &apimodels.AnalysisResponse{
		PageID:      pageID,
		Confidence:  confidenceOr(doc.Get("confidence"), defaultPageConfidence),
		NeedsReview: boolOr(doc.Get("needs_review"), false),
		Warnings:    normalizeWarnings(doc.Get("warnings")),
		Annotations: normalizeAnnotations(doc.Get("annotations")),
		Notes:       normalizeNotes(doc.Get("anki_notes")),
	}
	if id, ok := textValue(doc.Get("page_id")); ok && strings.TrimSpace(id) != "" {
		resp.PageID = id
	}
	if len(resp.Notes) == 0 {
		resp.Notes = Stub(pageID, "").Notes
	}
	return resp
}

func normalizeNotes(r gjson.Result) []apimodels.Note {
	notes := make([]apimodels.Note, 0)
	if !r.IsArray() {
		return notes
	}
	r.ForEach(func(_, value gjson.Result) bool {
		if note, ok := normalizeNote(value); ok {
			notes = append(notes, note)
		}
		return len(notes) < MaxNotes
	})
	return notes
}

// normalizeNote coerces one model note. Objects are always accepted; any
// other JSON value is rejected.
func normalizeNote(r gjson.Result) (apimodels.Note, bool) {
	if !r.IsObject() {
		return apimodels.Note{}, false
	}
	note := apimodels.Note{
		ID:               idOrNew(r.Get("id")),
		ExpressionOrWord: trimmedOr(r.Get("expression_or_word"), unknownExpression),
		Meaning:          trimmedOr(r.Get("meaning"), unknownMeaning),
		Confidence:       confidenceOr(r.Get("confidence"), defaultNoteConfidence),
		NeedsReview:      boolOr(r.Get("needs_review"), false),
	}
	note.Reading, _ = textValue(r.Get("reading"))
	note.Example, _ = textValue(r.Get("example"))
	return note, true
}

func normalizeAnnotations(r gjson.Result) []apimodels.Annotation {
	annotations := make([]apimodels.Annotation, 0)
	if !r.IsArray() {
		return annotations
	}
	r.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		kind, _ := textValue(value.Get("type"))
		a := apimodels.Annotation{
			ID:          idOrNew(value.Get("id")),
			Type:        apimodels.ParseAnnotationType(strings.TrimSpace(kind)),
			BoundingBox: boundingBox(value.Get("bounding_box")),
			Confidence:  confidenceOr(value.Get("confidence"), defaultAnnotationConfidence),
		}
		a.Color, _ = textValue(value.Get("color"))
		a.AnnotationText, _ = textValue(value.Get("annotation_text"))
		a.TargetText, _ = textValue(value.Get("target_text"))
		a.TargetContext, _ = textValue(value.Get("target_context"))
		annotations = append(annotations, a)
		return true
	})
	return annotations
}

func normalizeWarnings(r gjson.Result) []string {
	warnings := make([]string, 0)
	switch {
	case r.IsArray():
		r.ForEach(func(_, value gjson.Result) bool {
			if s, ok := textValue(value); ok && strings.TrimSpace(s) != "" {
				warnings = append(warnings, s)
			}
			return true
		})
	case r.Type == gjson.String && strings.TrimSpace(r.Str) != "":
		warnings = append(warnings, r.Str)
	}
	return warnings
}

// boundingBox accepts exactly four numbers; anything else becomes empty.
func boundingBox(r gjson.Result) []float64 {
	box := make([]float64, 0, 4)
	if !r.IsArray() {
		return box
	}
	values := r.Array()
	if len(values) != 4 {
		return box
	}
	for _, v := range values {
		if v.Type != gjson.Number {
			return box[:0]
		}
		box = append(box, v.Num)
	}
	return box
}

func textValue(r gjson.Result) (string, bool) {
	switch r.Type {
	case gjson.String:
		return r.Str, true
	case gjson.Number:
		return r.Raw, true
	default:
		return "", false
	}
}

func trimmedOr(r gjson.Result, def string) string {
	s, _ := textValue(r)
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

func idOrNew(r gjson.Result) string {
	if s, ok := textValue(r); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return uuid.NewString()
}

func confidenceOr(r gjson.Result, def float64) float64 {
	var f float64
	switch r.Type {
	case gjson.Number:
		f = r.Num
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return def
		}
		f = v
	default:
		return def
	}
	if math.IsNaN(f) {
		return def
	}
	return math.Max(0, math.Min(1, f))
}

func boolOr(r gjson.Result, def bool) bool {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		if b, err := strconv.ParseBool(strings.TrimSpace(r.Str)); err == nil {
			return b
		}
	}
	return def
}
