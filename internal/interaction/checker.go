// Package interaction validates drug interaction requests. The analysis itself is not
// available yet, so every accepted request gets a report saying so.
package interaction

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/pharmassist/internal/answer"
	"github.com/hyperjump/pharmassist/internal/config"
	"github.com/hyperjump/pharmassist/internal/errs"
	"github.com/hyperjump/pharmassist/internal/models"
	"github.com/hyperjump/pharmassist/pkg/utils"
)

// MinDrugs is the number of distinct drugs an interaction check needs.
const MinDrugs = 2

// SeverityUnknown is reported while no analysis is available.
const SeverityUnknown = "unknown"

var unavailable = map[string]string{
	"en": "Interaction analysis is not available yet for: %s.",
	"fr": "L'analyse des interactions n'est pas encore disponible pour : %s.",
}

// Checker handles interaction requests.
type Checker struct {
	languages config.LanguagesConfig
	logger    *zap.Logger
}

// NewChecker returns a Checker.
func NewChecker(languages config.LanguagesConfig, logger *zap.Logger) *Checker {
	return &Checker{languages: languages, logger: utils.OrNop(logger).Named("interaction")}
}

// Check rejects requests with fewer than MinDrugs distinct non-empty names and otherwise
// reports that the analysis is unavailable.
func (c *Checker) Check(ctx context.Context, req models.InteractionRequest) (*models.InteractionReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	drugs := req.DistinctDrugs()
	if len(drugs) < MinDrugs {
		return nil, errs.Validation(fmt.Sprintf("at least %d distinct drugs are required", MinDrugs))
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Transport("interaction check cancelled", err)
	}

	lang := c.languages.Resolve(req.Language)
	format, ok := unavailable[lang]
	if !ok {
		format = unavailable["en"]
	}
	c.logger.Info("interaction check", zap.Strings("drugs", drugs), zap.String("language", lang))

	return &models.InteractionReport{
		Drugs:      drugs,
		Available:  false,
		Severity:   SeverityUnknown,
		Analysis:   fmt.Sprintf(format, strings.Join(drugs, ", ")),
		Language:   lang,
		Disclaimer: answer.Disclaimer(lang),
	}, nil
}
