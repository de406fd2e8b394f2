package analyzer

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

const SchemaName = "page_analysis"

var SystemPrompt = `You are an assistant that extracts flashcards from annotated textbook pages.
Return a JSON object with keys: page_id, confidence (0-1), needs_review (bool),
warnings (list of strings), annotations (empty list if none), anki_notes (list of notes).
Each note must have: id (uuid), expression_or_word, reading, meaning, example,
confidence (0-1), needs_review (bool).
List notes in reading order: top to bottom, and left to right for items on the same line.
Never return more than 40 notes. Keep values concise and safe.`

var UserPrompt = `Analyze this page and propose 1-5 high-quality Anki notes.
Use the source text; avoid hallucinating. If unsure, mark needs_review=true.`

// The structs below only describe the model's output for schema generation.
// They are decoded loosely via gjson, never with encoding/json.

type pageSchema struct {
	PageID      string             `json:"page_id" jsonschema:"description=Identifier of the page or empty"`
	Confidence  float64            `json:"confidence" jsonschema:"description=Overall confidence between 0 and 1"`
	NeedsReview bool               `json:"needs_review"`
	Warnings    []string           `json:"warnings"`
	Annotations []annotationSchema `json:"annotations" jsonschema:"description=Pen or highlighter marks or an empty list"`
	Notes       []noteSchema       `json:"anki_notes" jsonschema:"description=At most 40 notes in reading order"`
}

type noteSchema struct {
	ID               string  `json:"id" jsonschema:"description=UUID of the note"`
	ExpressionOrWord string  `json:"expression_or_word"`
	Reading          string  `json:"reading"`
	Meaning          string  `json:"meaning"`
	Example          string  `json:"example"`
	Confidence       float64 `json:"confidence" jsonschema:"description=Confidence between 0 and 1"`
	NeedsReview      bool    `json:"needs_review"`
}

type annotationSchema struct {
	ID             string    `json:"id"`
	Type           string    `json:"type" jsonschema:"enum=underline,enum=overline,enum=highlight,enum=circle,enum=box,enum=arrow,enum=marginNote,enum=strikethrough,enum=handwriting,enum=other"`
	Color          string    `json:"color"`
	BoundingBox    []float64 `json:"bounding_box" jsonschema:"description=Four numbers x1 y1 x2 y2 or an empty list"`
	AnnotationText string    `json:"annotation_text"`
	TargetText     string    `json:"target_text"`
	TargetContext  string    `json:"target_context"`
	Confidence     float64   `json:"confidence"`
}

// ResponseSchema builds the strict JSON schema sent with every request.
// All properties are required and no additional properties are allowed.
func ResponseSchema() (map[string]interface{}, error) {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	raw, err := json.Marshal(r.Reflect(&pageSchema{}))
	if err != nil {
		return nil, fmt.Errorf("marshal response schema: %w", err)
	}
	var schema map[string]interface{}
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("unmarshal response schema: %w", err)
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	return schema, nil
}
