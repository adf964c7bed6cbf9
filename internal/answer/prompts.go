package answer

import (
	"strings"
	"text/template"

	"github.com/hyperjump/pharmassist/internal/models"
)

const systemPrompt = "You are an expert pharmaceutical assistant. You give clear, factual information and never diagnose."

var promptTemplates = map[models.QueryType]string{
	models.QueryTypeDrugInfo: `Provide clear and accurate information about the medication.

Available information:
{{.Context}}

Question: {{.Question}}

Answer in {{.Language}} with:
1. Brand and generic name
2. Standard dosage (adults and children)
3. General precautions
4. Common side effects
5. Storage

Always end with a reminder to consult a healthcare professional.`,

	models.QueryTypeSideEffects: `Describe the side effects relevant to the question using the information below.

Available information:
{{.Context}}

Question: {{.Question}}

Answer in {{.Language}}. List common side effects first, then serious ones that require
medical attention. If the information does not cover the question, say so plainly.
Always end with a reminder to consult a healthcare professional.`,

	models.QueryTypeGeneral: `Answer the following pharmaceutical question in {{.Language}}.

Context: {{.Context}}
Question: {{.Question}}

Keep the answer concise and professional.`,
}

type promptData struct {
	Context  string
	Question string
	Language string
}

func parseTemplates() (map[models.QueryType]*template.Template, error) {
	out := make(map[models.QueryType]*template.Template, len(promptTemplates))
	for qt, text := range promptTemplates {
		t, err := template.New(string(qt)).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, err
		}
		out[qt] = t
	}
	return out, nil
}

func render(t *template.Template, data promptData) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

var languageNames = map[string]string{
	"fr": "French",
	"en": "English",
	"de": "German",
	"es": "Spanish",
	"it": "Italian",
}

// LanguageName returns the English name of a language code, or the code itself.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}
