package language_test

import (
	"errors"
	"testing"

	"github.com/copyflow-project/copyflow/pkg/errclass"
	"github.com/copyflow-project/copyflow/pkg/language"
	"github.com/copyflow-project/copyflow/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	opts := language.Options()
	require.Len(t, opts, 10)
	assert.Equal(t, model.LanguageCode("en-US"), opts[0].Code)
	assert.Equal(t, "American English", opts[0].Name)
	assert.Equal(t, "British English", opts[1].Name)
	for _, o := range opts {
		assert.NotEmpty(t, o.Native, "native name for %s", o.Code)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want model.LanguageCode
	}{
		{"en-US", "en-US"},
		{"en_gb", "en-GB"},
		{"DE-de", "de-DE"},
		{" ja-JP ", "ja-JP"},
	}
	for _, tt := range tests {
		got, err := language.Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParse_Unsupported(t *testing.T) {
	_, err := language.Parse("zh-CN")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errclass.ErrLanguageUnsupported))

	_, err = language.Parse("not a tag!")
	assert.True(t, errors.Is(err, errclass.ErrLanguageUnsupported))
}

func TestParseTone(t *testing.T) {
	got, err := language.ParseTone("casual")
	require.NoError(t, err)
	assert.Equal(t, model.ToneCasual, got)

	got, err = language.ParseTone("social-media")
	require.NoError(t, err)
	assert.Equal(t, model.ToneSocialMedia, got)

	got, err = language.ParseTone("Social")
	require.NoError(t, err)
	assert.Equal(t, model.ToneSocialMedia, got)

	_, err = language.ParseTone("sarcastic")
	assert.True(t, errors.Is(err, errclass.ErrToneUnsupported))
}

func TestGuidance(t *testing.T) {
	assert.Contains(t, language.Guidance("en-GB", model.ToneProfessional)[0], "colour")
	assert.Contains(t, language.Guidance("en-US", model.ToneProfessional)[0], "color")
	assert.Contains(t, language.Guidance("fr-FR", model.ToneCasual)[0], "informally")
	assert.Contains(t, language.Guidance("fr-FR", model.ToneProfessional)[0], "formally")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "American English", language.DisplayName("en-US"))
	assert.Equal(t, "??", language.DisplayName("??"))
}
