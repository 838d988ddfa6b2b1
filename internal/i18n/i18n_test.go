package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestEnglish(t *testing.T) {
	p := NewPrinter("en")
	assert.Equal(t, language.English, p.Tag())
	assert.Equal(t, "Cancelled by user", p.Text(CancelledByUser))
	assert.Equal(t, "Generation completed", p.Text(GenerationCompleted))
	assert.Equal(t, "No API key supplied! Please check your API settings.", p.Text(NoAPIKeyWarning))
}

func TestGerman(t *testing.T) {
	p := NewPrinter("de-AT")
	assert.Equal(t, language.German, p.Tag())
	assert.Equal(t, "Vom Benutzer abgebrochen", p.Text(CancelledByUser))
}

func TestSpanish(t *testing.T) {
	p := NewPrinter("es")
	assert.Equal(t, "¡No se enviaron mensajes!", p.Text(NoMessagesSubmitted))
}

func TestFallback(t *testing.T) {
	for _, lang := range []string{"", "xx-invalid-!", "ja"} {
		p := NewPrinter(lang)
		assert.Equal(t, language.English, p.Tag(), lang)
		assert.Equal(t, "Error generating title!", p.Text(ErrorGeneratingTitle))
	}
}

func TestEveryKeyTranslated(t *testing.T) {
	for key := range translations[language.English] {
		for _, tag := range Supported {
			assert.NotEmpty(t, translations[tag][key], "%s/%s", tag, key)
		}
	}
}
