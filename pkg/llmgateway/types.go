package llmgateway

// Provider identifies which backend answered a request.
type Provider string

const (
	ProviderPrimary   Provider = "primary"
	ProviderSecondary Provider = "secondary"
)

// ResultKind tags the sum type modeling the source's exception-driven LLM
// control flow (try/except around timeout, status, parse), per §9.
type ResultKind int

const (
	// KindOk is a successful completion.
	KindOk ResultKind = iota
	// KindTransientError is a network/timeout/5xx-class failure.
	KindTransientError
	// KindParseError is a malformed provider response.
	KindParseError
	// KindUnavailable means every provider in the fallback chain failed.
	KindUnavailable
)

// Result is `Result = Ok(text, tokens) | TransientError | ParseError |
// Unavailable`. Gateway.Analyse traverses the provider list until an Ok is
// produced or the list is exhausted, and hands the worker a single Result.
type Result struct {
	Kind     ResultKind
	Text     string
	Tokens   int
	Provider Provider
	Err      error
}

// Ok reports whether the attempt produced usable text.
func (r Result) Ok() bool {
	return r.Kind == KindOk && r.Text != ""
}
