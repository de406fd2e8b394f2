package llm

import "context"

type Provider interface {
	// Complete sends one multimodal request and returns the model's text output
	Complete(ctx context.Context, req Request, opts ...Option) (*Response, error)
}

// Request is a single system + user turn, optionally carrying an image and a
// JSON schema the output must conform to.
type Request struct {
	System string
	User   string

	// ImageDataURL is a data: URL ("data:image/jpeg;base64,...")
	ImageDataURL string

	// Schema is the JSON schema for structured output; nil means free text
	Schema     interface{}
	SchemaName string
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type Option func(*Options)

type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

func WithModel(model string) Option {
	return func(o *Options) {
		if model != "" {
			o.Model = model
		}
	}
}

func WithMaxTokens(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxTokens = n
		}
	}
}

func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = t
	}
}

type Response struct {
	Content      string
	FinishReason string
	Model        string
	Usage        Usage
}
