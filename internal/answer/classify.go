package answer

import (
	"strings"

	"github.com/hyperjump/pharmassist/internal/models"
	"github.com/hyperjump/pharmassist/pkg/utils"
)

// Keyword sets are checked in order; drug information wins over side effects.
var (
	drugInfoKeywords = []string{
		"dosage", "dose", "posologie", "how to take", "how much", "comment prendre",
		"what is", "qu'est-ce", "used for", "indication", "notice", "storage", "conservation",
	}
	sideEffectKeywords = []string{
		"side effect", "effet secondaire", "effets secondaires", "effet indésirable",
		"effets indésirables", "adverse", "allergic reaction", "réaction allergique", "allergy", "allergie",
	}
)

// hedgingPhrases lower the confidence of an answer that contains them.
var hedgingPhrases = []string{
	"not sure", "uncertain", "i don't know", "i do not know", "cannot determine",
	"no information", "not enough information", "may not be accurate",
	"pas sûr", "incertain", "je ne sais pas", "aucune information", "pas assez d'information",
}

// Classify tags query with a coarse type by keyword matching.
func Classify(query string) models.QueryType {
	q := strings.ToLower(query)
	switch {
	case utils.ContainsAny(q, drugInfoKeywords):
		return models.QueryTypeDrugInfo
	case utils.ContainsAny(q, sideEffectKeywords):
		return models.QueryTypeSideEffects
	default:
		return models.QueryTypeGeneral
	}
}

// Confidence is a heuristic score, not a calibrated probability: 0.5, plus 0.1 per
// source up to 0.3, minus 0.2 when the answer hedges, clamped to [0.1, 1.0].
func Confidence(answer string, sources int) float64 {
	score := 0.5
	if sources > 0 {
		score += 0.1 * float64(min(sources, 3))
	}
	if utils.ContainsAny(answer, hedgingPhrases) {
		score -= 0.2
	}
	return utils.Clamp(score, 0.1, 1.0)
}

var suggestions = map[string]map[models.QueryType][]string{
	"en": {
		models.QueryTypeDrugInfo: {
			"What are the side effects?",
			"Are there any contraindications?",
			"Can it be taken with other medications?",
		},
		models.QueryTypeSideEffects: {
			"When should I see a doctor?",
			"How can these side effects be reduced?",
			"Is there an alternative treatment?",
		},
		models.QueryTypeGeneral: {
			"What is the recommended dosage?",
			"What are the side effects?",
			"What are the drug interactions?",
		},
	},
	"fr": {
		models.QueryTypeDrugInfo: {
			"Quels sont les effets secondaires ?",
			"Y a-t-il des contre-indications ?",
			"Peut-on le prendre avec d'autres médicaments ?",
		},
		models.QueryTypeSideEffects: {
			"Quand faut-il consulter un médecin ?",
			"Comment réduire ces effets secondaires ?",
			"Existe-t-il un traitement alternatif ?",
		},
		models.QueryTypeGeneral: {
			"Quelle est la posologie recommandée ?",
			"Quels sont les effets secondaires ?",
			"Quelles sont les interactions médicamenteuses ?",
		},
	},
}

// Suggestions returns follow-up questions for a query type, in English when language has none.
func Suggestions(qt models.QueryType, language string) []string {
	set, ok := suggestions[language]
	if !ok {
		set = suggestions["en"]
	}
	return append([]string(nil), set[qt]...)
}
