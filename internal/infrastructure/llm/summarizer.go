// Package llm turns extracted document text into summaries through a
// generative backend (Gemini or Ollama).
package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
	"github.com/kirillkom/pdf-summary-service/internal/infrastructure/resilience"
)

// Generator sends one prompt to a generative backend and returns its text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// StatusCoder is implemented by backend HTTP status errors.
type StatusCoder interface {
	HTTPStatusCode() int
}

type Summarizer struct {
	generator Generator
	executor  *resilience.Executor
	locale    string
}

func NewSummarizer(generator Generator, executor *resilience.Executor, locale string) *Summarizer {
	return &Summarizer{
		generator: generator,
		executor:  executor,
		locale:    locale,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.Fail(domain.ErrGeneration, "empty text received for summarization")
	}
	if s.generator == nil {
		return "", domain.Fail(domain.ErrGeneration, "summary model is not configured")
	}

	prompt := buildSummaryPrompt(text, s.locale)
	var out string
	call := func(callCtx context.Context) error {
		var err error
		out, err = s.generator.Generate(callCtx, prompt)
		return err
	}

	var err error
	if s.executor != nil {
		err = s.executor.Execute(ctx, "llm."+s.generator.Name()+".generate", call, recordsFailure)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", domain.Failf(domain.ErrGeneration, "error while calling the summary model", err)
	}
	return out, nil
}

// recordsFailure counts transport failures, timeouts and 5xx/429 responses
// against the breaker; caller mistakes such as 400 do not trip it.
func recordsFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr StatusCoder
	if errors.As(err, &statusErr) {
		code := statusErr.HTTPStatusCode()
		return code == 408 || code == 429 || code >= 500
	}
	return true
}
