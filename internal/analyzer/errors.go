package analyzer

import (
	"fmt"
	"net/http"
)

// Kind classifies why the pipeline could not produce a model-backed response.
type Kind string

const (
	// KindConfigurationAbsent means no credential is configured; stub mode is deliberate.
	KindConfigurationAbsent Kind = "CONFIGURATION_ABSENT"
	// KindRemoteCapability covers transport and provider-side failures.
	KindRemoteCapability Kind = "REMOTE_CAPABILITY"
	// KindMalformedOutput means the model's text was not JSON even after salvage.
	KindMalformedOutput Kind = "MALFORMED_OUTPUT"
	// KindInternal is anything else, including recovered panics.
	KindInternal Kind = "INTERNAL"
)

const rawPrefixLen = 200

type Error struct {
	Kind Kind
	Msg  string

	// Raw holds a truncated prefix of the model output for MalformedOutput.
	Raw string

	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Raw != "" {
		msg = fmt.Sprintf("%s; raw=%q", msg, e.Raw)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus is the status an equivalent failure would map to. It is only
// logged; callers always receive 200.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindRemoteCapability, KindMalformedOutput:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errConfigurationAbsent() *Error {
	return &Error{Kind: KindConfigurationAbsent, Msg: "OPENAI_API_KEY missing"}
}

func errRemote(err error) *Error {
	return &Error{Kind: KindRemoteCapability, Msg: "LLM error", Err: err}
}

func errMalformed(raw string, err error) *Error {
	return &Error{Kind: KindMalformedOutput, Msg: "LLM error: output is not valid JSON", Raw: truncateString(raw, rawPrefixLen), Err: err}
}

func errInternal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

func truncateString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
