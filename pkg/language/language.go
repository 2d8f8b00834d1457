// Package language lists the target locales and tones CopyFlow supports and
// carries the locale guidance injected into translation prompts.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/copyflow-project/copyflow/pkg/errclass"
	"github.com/copyflow-project/copyflow/pkg/model"
)

// Option describes one selectable target language.
type Option struct {
	Code        model.LanguageCode `json:"code"`
	Name        string             `json:"name"`
	Native      string             `json:"native"`
	Description string             `json:"description"`
}

var supported = []struct {
	code        model.LanguageCode
	description string
}{
	{"en-US", "American spelling and idioms"},
	{"en-GB", "British spelling and idioms"},
	{"fr-FR", "Metropolitan French"},
	{"de-DE", "Standard German"},
	{"es-ES", "Castilian Spanish"},
	{"ja-JP", "Japanese"},
	{"ko-KR", "Korean"},
	{"it-IT", "Italian"},
	{"pt-PT", "European Portuguese"},
	{"nl-NL", "Dutch"},
}

// Tones lists the supported marketing registers in display order.
var Tones = []model.Tone{
	model.ToneProfessional,
	model.ToneCasual,
	model.TonePromotional,
	model.ToneSocialMedia,
}

// Options returns every supported target language with display names.
func Options() []Option {
	out := make([]Option, 0, len(supported))
	for _, s := range supported {
		tag := language.MustParse(string(s.code))
		out = append(out, Option{
			Code:        s.code,
			Name:        display.English.Tags().Name(tag),
			Native:      display.Self.Name(tag),
			Description: s.description,
		})
	}
	return out
}

// Parse canonicalises a user-supplied tag ("en_us", "EN-us") and checks that
// it is one of the supported locales.
func Parse(s string) (model.LanguageCode, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "_", "-")
	tag, err := language.Parse(raw)
	if err != nil {
		return "", errclass.ErrLanguageUnsupported.WithMessagef("%q: %v", s, err)
	}
	canon := model.LanguageCode(tag.String())
	for _, sup := range supported {
		if sup.code == canon {
			return canon, nil
		}
	}
	return "", errclass.ErrLanguageUnsupported.WithMessagef("%q is not a supported target", s)
}

// ParseTone matches a tone case-insensitively; "social" and "social-media"
// are accepted for "Social Media".
func ParseTone(s string) (model.Tone, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	if norm == "social" {
		norm = "social media"
	}
	for _, t := range Tones {
		if strings.ToLower(string(t)) == norm {
			return t, nil
		}
	}
	return "", errclass.ErrToneUnsupported.WithMessagef("%q", s)
}

// DisplayName returns the English name of a code, or the code itself when it
// cannot be parsed.
func DisplayName(code model.LanguageCode) string {
	tag, err := language.Parse(string(code))
	if err != nil {
		return string(code)
	}
	return display.English.Tags().Name(tag)
}

// Guidance returns locale-specific instructions for the translation prompt.
func Guidance(code model.LanguageCode, tone model.Tone) []string {
	var lines []string
	switch code {
	case "en-GB":
		lines = append(lines, "Use UK English spelling and vocabulary: 'colour', 'centre', 'flat', 'holiday'.")
	case "en-US":
		lines = append(lines, "Use US English spelling and vocabulary: 'color', 'center', 'apartment', 'vacation'.")
	case "fr-FR", "de-DE", "es-ES", "it-IT", "pt-PT", "nl-NL":
		if tone == model.ToneCasual || tone == model.ToneSocialMedia {
			lines = append(lines, "Address the reader informally (tu/du/tú/tu/tu/je).")
		} else {
			lines = append(lines, "Address the reader formally (vous/Sie/usted/Lei/você/u).")
		}
	case "ja-JP":
		lines = append(lines, "Use polite desu/masu form unless the tone is casual.")
	case "ko-KR":
		lines = append(lines, "Use polite haeyo-che unless the tone is casual.")
	}
	return lines
}
