// Package answer turns an assembled context into a DrugAnswer through a chat completion.
package answer

import (
	"context"
	"errors"
	"fmt"
	"text/template"

	"go.uber.org/zap"

	"github.com/hyperjump/pharmassist/internal/config"
	"github.com/hyperjump/pharmassist/internal/errs"
	"github.com/hyperjump/pharmassist/internal/llm"
	"github.com/hyperjump/pharmassist/internal/models"
	"github.com/hyperjump/pharmassist/pkg/utils"
)

var disclaimers = map[string]string{
	"en": "This information is generated by AI and does not replace the advice of a healthcare professional. Consult a doctor or pharmacist.",
	"fr": "Ces informations sont générées par IA et ne remplacent pas l'avis d'un professionnel de santé. Consultez un médecin ou un pharmacien.",
}

// Disclaimer returns the healthcare-professional notice in language, falling back to English.
func Disclaimer(language string) string {
	if d, ok := disclaimers[language]; ok {
		return d
	}
	return disclaimers["en"]
}

// User-visible replacements for a failed completion.
const (
	MsgNotConfigured = "LLM service not configured. Check the OpenAI API key."
	MsgAuthFailed    = "Authentication error. Check the OpenAI API key."
	MsgRateLimited   = "Request limit reached. Please try again later."
	MsgUnavailable   = "The AI service is temporarily unavailable. Please try again later."
)

// Generator builds prompts and asks the completer for the answer text.
type Generator struct {
	completer llm.Completer
	languages config.LanguagesConfig
	templates map[models.QueryType]*template.Template
	logger    *zap.Logger
}

// NewGenerator returns a Generator. completer may be nil when no API key is configured,
// in which case every answer says the service is not configured.
func NewGenerator(completer llm.Completer, languages config.LanguagesConfig, logger *zap.Logger) (*Generator, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}
	return &Generator{
		completer: completer,
		languages: languages,
		templates: templates,
		logger:    utils.OrNop(logger).Named("answer"),
	}, nil
}

// Configured reports whether a completion backend is available.
func (g *Generator) Configured() bool {
	return g.completer != nil
}

// Answer never fails: completion errors are reported in the answer text.
func (g *Generator) Answer(ctx context.Context, query string, c *models.Context, language string) *models.DrugAnswer {
	lang := g.languages.Resolve(language)
	qt := Classify(query)
	if c == nil {
		c = &models.Context{}
	}

	text := g.complete(ctx, qt, query, c, lang)

	sources := 0
	if c.Used {
		sources = len(c.Sources)
	}
	return &models.DrugAnswer{
		Query:       query,
		Answer:      text,
		ContextUsed: c.Used,
		Language:    lang,
		Sources:     c.Sources,
		SourcesUsed: sources,
		QueryType:   qt,
		Confidence:  Confidence(text, sources),
		Suggestions: Suggestions(qt, lang),
		Disclaimer:  Disclaimer(lang),
	}
}

func (g *Generator) complete(ctx context.Context, qt models.QueryType, query string, c *models.Context, lang string) string {
	if g.completer == nil {
		return MsgNotConfigured
	}
	prompt, err := render(g.templates[qt], promptData{
		Context:  c.Text,
		Question: query,
		Language: LanguageName(lang),
	})
	if err != nil {
		g.logger.Error("prompt rendering failed", zap.String("type", string(qt)), zap.Error(err))
		return MsgUnavailable
	}
	text, err := g.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		g.logger.Warn("completion failed",
			zap.String("kind", string(errs.KindOf(err))),
			zap.Error(err))
		return failureMessage(err)
	}
	if text == "" {
		return MsgUnavailable
	}
	return text
}

func failureMessage(err error) string {
	switch {
	case errs.IsKind(err, errs.KindUnauthorized):
		return MsgAuthFailed
	case errors.Is(err, llm.ErrRateLimited):
		return MsgRateLimited
	default:
		return MsgUnavailable
	}
}
