package apimodels

type AnalysisResponse struct {
	// Identifier of the analyzed page
	PageID string `json:"page_id" validate:"required"`

	// Overall extraction confidence (0.0-1.0)
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`

	// Whether a human should look at the result before importing it
	NeedsReview bool `json:"needs_review"`

	// Human-readable problems encountered while analyzing the page
	Warnings []string `json:"warnings" validate:"required"`

	// Marks found on the page (currently always empty)
	Annotations []Annotation `json:"annotations" validate:"required,dive"`

	// Extracted flashcards in reading order
	Notes []Note `json:"anki_notes" validate:"required,min=1,max=40,dive"`
}

// Note is a single flashcard extracted from the page.
type Note struct {
	ID               string  `json:"id" validate:"required"`
	ExpressionOrWord string  `json:"expression_or_word" validate:"required"`
	Reading          string  `json:"reading"`
	Meaning          string  `json:"meaning" validate:"required"`
	Example          string  `json:"example"`
	Confidence       float64 `json:"confidence" validate:"gte=0,lte=1"`
	NeedsReview      bool    `json:"needs_review"`
}

type AnnotationType string

const (
	AnnotationUnderline     AnnotationType = "underline"
	AnnotationOverline      AnnotationType = "overline"
	AnnotationHighlight     AnnotationType = "highlight"
	AnnotationCircle        AnnotationType = "circle"
	AnnotationBox           AnnotationType = "box"
	AnnotationArrow         AnnotationType = "arrow"
	AnnotationMarginNote    AnnotationType = "marginNote"
	AnnotationStrikethrough AnnotationType = "strikethrough"
	AnnotationHandwriting   AnnotationType = "handwriting"
	AnnotationOther         AnnotationType = "other"
)

// ParseAnnotationType maps free-form model output onto a known mark type.
func ParseAnnotationType(s string) AnnotationType {
	switch t := AnnotationType(s); t {
	case AnnotationUnderline, AnnotationOverline, AnnotationHighlight, AnnotationCircle,
		AnnotationBox, AnnotationArrow, AnnotationMarginNote, AnnotationStrikethrough,
		AnnotationHandwriting:
		return t
	default:
		return AnnotationOther
	}
}

// Annotation is a pen or highlighter mark detected on the page.
type Annotation struct {
	ID   string         `json:"id" validate:"required"`
	Type AnnotationType `json:"type" validate:"required"`

	// Ink color as reported by the model, e.g. "red"
	Color string `json:"color"`

	// [x1, y1, x2, y2] in image coordinates; empty when unknown
	BoundingBox []float64 `json:"bounding_box" validate:"len=0|len=4"`

	AnnotationText string  `json:"annotation_text"`
	TargetText     string  `json:"target_text"`
	TargetContext  string  `json:"target_context"`
	Confidence     float64 `json:"confidence" validate:"gte=0,lte=1"`
}
