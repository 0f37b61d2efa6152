package conversation

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Disclosure identifies a regulatory notice that must be delivered at most
// once per session.
type Disclosure string

const (
	// DisclosureRecording is read before the first assistant reply.
	DisclosureRecording Disclosure = "call_start"
	// DisclosureMiniMiranda is read before the first collections reply.
	DisclosureMiniMiranda Disclosure = "debt_collection"
	// DisclosureMarketing is read before the first sales reply.
	DisclosureMarketing Disclosure = "marketing"
)

// disclosureLanguages orders the supported locales; index 0 is the fallback.
var disclosureLanguages = []language.Tag{
	language.AmericanEnglish,
	language.Spanish,
}

// disclosureTexts indexes notice text by disclosure, then by position in
// disclosureLanguages. The recording and marketing notices take the bank
// name as their only format argument.
var disclosureTexts = map[Disclosure][]string{
	DisclosureRecording: {
		"This call may be recorded for quality and compliance purposes. " +
			"You are speaking with an AI assistant from %s. " +
			"You may request a human agent at any time by saying 'agent' or pressing zero.",
		"Esta llamada puede ser grabada con fines de calidad y cumplimiento. " +
			"Está hablando con un asistente de IA de %s. " +
			"Puede solicitar un agente humano en cualquier momento diciendo 'agente' o presionando cero.",
	},
	DisclosureMiniMiranda: {
		"This is an attempt to collect a debt. " +
			"Any information obtained will be used for that purpose. " +
			"This communication is from a debt collector.",
		"Este es un intento de cobrar una deuda. " +
			"Cualquier información obtenida será utilizada para ese propósito. " +
			"Esta comunicación proviene de un cobrador de deudas.",
	},
	DisclosureMarketing: {
		"The following is a marketing message from %s. " +
			"You may opt out at any time by saying 'stop' or pressing nine.",
		"El siguiente es un mensaje de marketing de %s. " +
			"Puede optar por no recibirlo en cualquier momento diciendo 'stop' o presionando nueve.",
	},
}

// Disclosures resolves localized notice text for a bank.
type Disclosures struct {
	bankName string
	matcher  language.Matcher
}

// NewDisclosures creates a disclosure resolver. Panics on an empty bank name
// because the recording and marketing notices embed it.
func NewDisclosures(bankName string) *Disclosures {
	if bankName == "" {
		panic("conversation: bank name is required")
	}
	return &Disclosures{
		bankName: bankName,
		matcher:  language.NewMatcher(disclosureLanguages),
	}
}

// Text returns the notice in the closest supported locale. Unknown or empty
// locale strings fall back to American English.
func (d *Disclosures) Text(disclosure Disclosure, locale string) string {
	texts, ok := disclosureTexts[disclosure]
	if !ok {
		return ""
	}

	idx := 0
	if locale != "" {
		if tag, err := language.Parse(locale); err == nil {
			_, idx, _ = d.matcher.Match(tag)
		}
	}
	if idx >= len(texts) {
		idx = 0
	}

	text := texts[idx]
	if strings.Contains(text, "%s") {
		return fmt.Sprintf(text, d.bankName)
	}
	return text
}

// specialistDisclosure maps a specialist to the notice its first reply must
// carry, if any.
func specialistDisclosure(s Specialist) (Disclosure, bool) {
	switch s {
	case SpecialistCollections:
		return DisclosureMiniMiranda, true
	case SpecialistSales:
		return DisclosureMarketing, true
	default:
		return "", false
	}
}
