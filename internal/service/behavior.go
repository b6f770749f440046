package service

import (
	"strings"
	"unicode"

	"github.com/lrsystem/lrsystem/internal/catalog"
	"github.com/lrsystem/lrsystem/internal/fuzzy"
)

// BehaviorKind classifies conversational input that needs no data access.
type BehaviorKind string

const (
	BehaviorQuery        BehaviorKind = "consulta_normal"
	BehaviorGreeting     BehaviorKind = "saludo"
	BehaviorFarewell     BehaviorKind = "despedida"
	BehaviorCapabilities BehaviorKind = "capacidades"
)

var greetingKeywords = []string{
	"hola", "hi", "hello", "hey", "saludos", "buen dia",
	"buenos dias", "buenas tardes", "buenas noches", "que tal", "como estas",
}

var farewellKeywords = []string{
	"adios", "bye", "chao", "chau", "hasta luego", "hasta pronto",
	"hasta la vista", "nos vemos", "gracias", "thanks",
}

var capabilityKeywords = []string{
	"que puedes hacer", "que sabes hacer", "cuales son tus funciones",
	"que ofreces", "ayuda", "help", "funciones", "capacidades",
}

// queryVerbs mark a request for data even without an entity name.
var queryVerbs = []string{
	"lista", "listar", "busca", "buscar", "muestra", "mostrar", "dame",
	"consulta", "obtener", "cuantos", "cuantas",
}

// Behavior is the outcome of detection. Reply is set for every kind except
// BehaviorQuery.
type Behavior struct {
	Kind       BehaviorKind
	Confidence float64
	Reply      string
}

// BehaviorDetector scores input against keyword lists. Anything that also
// mentions the domain is treated as a query.
type BehaviorDetector struct {
	domain []string
	help   string
}

func NewBehaviorDetector() *BehaviorDetector {
	d := &BehaviorDetector{domain: append([]string(nil), queryVerbs...)}
	var topics []string
	for _, e := range catalog.Entities() {
		d.domain = append(d.domain, fold(e.Singular), fold(e.Plural), fold(e.Table))
		topics = append(topics, e.Plural)
	}
	d.help = "Puedo ayudarte a consultar y gestionar " + strings.Join(topics, ", ") +
		". Por ejemplo: \"empresas en Lima\" o \"máquinas de la planta norte\"."
	return d
}

// Detect classifies text.
func (d *BehaviorDetector) Detect(text string) Behavior {
	norm := " " + fold(text) + " "

	if count(norm, d.domain) > 0 {
		return Behavior{Kind: BehaviorQuery, Confidence: 1}
	}

	greeting := count(norm, greetingKeywords)
	farewell := count(norm, farewellKeywords)
	capability := count(norm, capabilityKeywords)
	total := greeting + farewell + capability
	if total == 0 {
		return Behavior{Kind: BehaviorQuery, Confidence: 0.5}
	}

	// Ties resolve in declaration order.
	best, kind := greeting, BehaviorGreeting
	if farewell > best {
		best, kind = farewell, BehaviorFarewell
	}
	if capability > best {
		best, kind = capability, BehaviorCapabilities
	}
	return Behavior{
		Kind:       kind,
		Confidence: float64(best) / float64(total),
		Reply:      d.reply(kind),
	}
}

func (d *BehaviorDetector) reply(k BehaviorKind) string {
	switch k {
	case BehaviorGreeting:
		return "¡Hola! Soy tu asistente de gestión. " + d.help
	case BehaviorFarewell:
		return "¡Hasta luego! Aquí estaré cuando necesites consultar tus datos."
	case BehaviorCapabilities:
		return d.help
	}
	return ""
}

// fold lowercases, strips accents and turns punctuation into spaces.
func fold(s string) string {
	s = fuzzy.Normalize(s, fuzzy.FoldCase|fuzzy.FoldDiacritics)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// count returns how many keywords occur in padded as whole words.
func count(padded string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(padded, " "+kw+" ") {
			n++
		}
	}
	return n
}
