// Package i18n holds the user-facing messages in every supported language.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	NoAPIKeyWarning       = "noApiKeyWarning"
	NoMessagesSubmitted   = "errors.noMessagesSubmitted"
	MessageExceedMaxToken = "errors.messageExceedMaxToken"
	StreamLocked          = "errors.streamLocked"
	CancelledByUser       = "errors.cancelledByUser"
	GenerationCompleted   = "errors.generationCompleted"
	ErrorGeneratingTitle  = "errors.errorGeneratingTitle"
	NoBridge              = "errors.noBridge"
)

var translations = map[language.Tag]map[string]string{
	language.English: {
		NoAPIKeyWarning:       "No API key supplied! Please check your API settings.",
		NoMessagesSubmitted:   "No messages submitted!",
		MessageExceedMaxToken: "Message exceed max token!",
		StreamLocked:          "Oops, the stream is locked right now. Please try again",
		CancelledByUser:       "Cancelled by user",
		GenerationCompleted:   "Generation completed",
		ErrorGeneratingTitle:  "Error generating title!",
		NoBridge:              "This model needs a host bridge, but none is available.",
	},
	language.German: {
		NoAPIKeyWarning:       "Kein API-Schlüssel angegeben! Bitte überprüfe deine API-Einstellungen.",
		NoMessagesSubmitted:   "Keine Nachrichten übermittelt!",
		MessageExceedMaxToken: "Nachricht überschreitet die maximale Tokenanzahl!",
		StreamLocked:          "Hoppla, der Stream ist gerade gesperrt. Bitte versuche es erneut",
		CancelledByUser:       "Vom Benutzer abgebrochen",
		GenerationCompleted:   "Generierung abgeschlossen",
		ErrorGeneratingTitle:  "Fehler beim Erzeugen des Titels!",
		NoBridge:              "Dieses Modell benötigt eine Host-Bridge, aber keine ist verfügbar.",
	},
	language.Spanish: {
		NoAPIKeyWarning:       "¡No se ha proporcionado una clave API! Revisa la configuración de la API.",
		NoMessagesSubmitted:   "¡No se enviaron mensajes!",
		MessageExceedMaxToken: "¡El mensaje supera el máximo de tokens!",
		StreamLocked:          "Vaya, el flujo está bloqueado ahora mismo. Inténtalo de nuevo",
		CancelledByUser:       "Cancelado por el usuario",
		GenerationCompleted:   "Generación completada",
		ErrorGeneratingTitle:  "¡Error al generar el título!",
		NoBridge:              "Este modelo necesita un puente del anfitrión, pero no hay ninguno disponible.",
	},
}

// Supported lists the languages with translations, English first.
var Supported = []language.Tag{language.English, language.German, language.Spanish}

var messages = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, text := range msgs {
			if err := b.SetString(tag, key, text); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Printer renders messages in one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// NewPrinter returns a printer for the closest supported match of lang
// (a BCP 47 tag such as "de" or "es-MX"). Unknown tags fall back to English.
func NewPrinter(lang string) *Printer {
	tag := language.English
	if parsed, err := language.Parse(lang); err == nil {
		_, idx, _ := language.NewMatcher(Supported).Match(parsed)
		tag = Supported[idx]
	}
	return &Printer{
		tag: tag,
		p:   message.NewPrinter(tag, message.Catalog(messages)),
	}
}

// Text returns the message for key.
func (p *Printer) Text(key string) string {
	return p.p.Sprintf(key)
}

// Tag returns the language the printer uses.
func (p *Printer) Tag() language.Tag {
	return p.tag
}
