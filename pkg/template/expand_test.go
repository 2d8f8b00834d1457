package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/copyflow-project/copyflow/pkg/model"
)

func TestExpand(t *testing.T) {
	now := time.Date(2024, 7, 9, 14, 3, 5, 0, time.UTC)
	tests := []struct {
		name  string
		input string
		vars  map[string]string
		want  string
	}{
		{"no placeholders", "out.md", nil, "out.md"},
		{"date", "launch-{date}.md", nil, "launch-2024-07-09.md"},
		{"time", "run-{time}.json", nil, "run-140305.json"},
		{"unix", "{unix}.md", nil, "1720533785.md"},
		{"custom var", "{base}.{lang}.md", map[string]string{"base": "launch", "lang": "fr-FR"}, "launch.fr-FR.md"},
		{"var overrides builtin", "{date}", map[string]string{"date": "today"}, "today"},
		{"unknown left alone", "{nope}-{date}", nil, "{nope}-2024-07-09"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandAt(tt.input, tt.vars, now))
		})
	}
}

func TestExpand_UsesCurrentTime(t *testing.T) {
	got := Expand("{date}", nil)
	assert.Len(t, got, len("2006-01-02"))
}

func TestOutputVars(t *testing.T) {
	vars := OutputVars("docs/launch.page.html", "pt-PT", model.ToneSocialMedia)
	assert.Equal(t, "launch.page", vars["base"])
	assert.Equal(t, "pt-PT", vars["lang"])
	assert.Equal(t, "pt", vars["lang_short"])
	assert.Equal(t, "social-media", vars["tone"])

	piped := OutputVars("-", "ja-JP", "")
	assert.Equal(t, "stdin", piped["base"])
	_, hasTone := piped["tone"]
	assert.False(t, hasTone)
}
