package cli

import (
	"fmt"
	"strings"

	"github.com/copyflow-project/copyflow/pkg/color"
	"github.com/copyflow-project/copyflow/pkg/language"
)

// suggestLanguages offers close matches for an unsupported language flag.
func suggestLanguages(query string) string {
	q := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(query), "_", "-"))
	opts := language.Options()

	var matches []string
	if q != "" {
		// Prefix on the primary subtag first ("en" -> en-US, en-GB).
		primary, _, _ := strings.Cut(q, "-")
		for _, o := range opts {
			code := strings.ToLower(string(o.Code))
			if strings.HasPrefix(code, primary+"-") {
				matches = append(matches, color.Success(string(o.Code)))
			}
		}
		if len(matches) == 0 {
			for _, o := range opts {
				if strings.Contains(strings.ToLower(o.Name), q) {
					matches = append(matches, color.Success(string(o.Code)))
				}
			}
		}
	}

	if len(matches) > 0 {
		hint := "Did you mean"
		if len(matches) > 1 {
			hint += " one of"
		}
		return fmt.Sprintf("%s: %s?", hint, strings.Join(matches, ", "))
	}
	return fmt.Sprintf("Run %s to see supported languages.", color.Code("copyflow languages"))
}

func suggestTones() string {
	names := make([]string, 0, len(language.Tones))
	for _, t := range language.Tones {
		names = append(names, color.Success(fmt.Sprintf("%q", string(t))))
	}
	return fmt.Sprintf("Available tones: %s", strings.Join(names, ", "))
}
