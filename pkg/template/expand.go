// Package template expands {placeholders} in output file names.
package template

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/copyflow-project/copyflow/pkg/model"
)

// Expand replaces {key} placeholders in text.
//
// Built-in placeholders:
//
//	{date}      current date, YYYY-MM-DD
//	{time}      current time, HHMMSS (file-name safe)
//	{unix}      current Unix timestamp
//
// vars override the built-ins. Unknown placeholders are left as they are.
func Expand(text string, vars map[string]string) string {
	return expandAt(text, vars, time.Now())
}

func expandAt(text string, vars map[string]string, now time.Time) string {
	if !strings.Contains(text, "{") {
		return text
	}
	placeholders := map[string]string{
		"date": now.Format("2006-01-02"),
		"time": now.Format("150405"),
		"unix": strconv.FormatInt(now.Unix(), 10),
	}
	for k, v := range vars {
		placeholders[k] = v
	}

	pairs := make([]string, 0, len(placeholders)*2)
	for key, value := range placeholders {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// OutputVars returns the placeholders available to --out paths: {base}
// (source file name without extension, "stdin" for piped input), {lang},
// {lang_short} (primary subtag) and {tone} (lowercase, spaces as dashes).
func OutputVars(sourcePath string, lang model.LanguageCode, tone model.Tone) map[string]string {
	base := "stdin"
	if sourcePath != "" && sourcePath != "-" {
		name := filepath.Base(sourcePath)
		base = strings.TrimSuffix(name, filepath.Ext(name))
	}
	short, _, _ := strings.Cut(string(lang), "-")
	vars := map[string]string{
		"base":       base,
		"lang":       string(lang),
		"lang_short": short,
	}
	if tone != "" {
		vars["tone"] = strings.ReplaceAll(strings.ToLower(string(tone)), " ", "-")
	}
	return vars
}
