package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ClassifierPrompt renders the system instruction for the intent
// classifier from the entity catalog.
func ClassifierPrompt() string {
	var b strings.Builder
	b.WriteString("Eres un ORQUESTADOR de consultas para un sistema de gestión. Analiza la consulta y determina:\n\n")
	b.WriteString("SERVICIOS DISPONIBLES:\n")
	for i, e := range entities {
		fmt.Fprintf(&b, "%d. %q: %s\n", i+1, e.Category, e.Description)
	}

	b.WriteString("\nTODOS LOS MÉTODOS DISPONIBLES POR SERVICIO:\n")
	for _, e := range entities {
		fmt.Fprintf(&b, "\n%s:\n", strings.ToUpper(string(e.Category)))
		for _, a := range e.Actions {
			fmt.Fprintf(&b, "- %s (%s)\n", a.Name, a.Description)
		}
	}

	cats := make([]string, len(entities))
	for i, e := range entities {
		cats[i] = fmt.Sprintf("%q", e.Category)
	}
	b.WriteString("\nIMPORTANTE: Responde SOLO con JSON válido, sin markdown, sin texto adicional.\n\n")
	b.WriteString("RESPONDE EXCLUSIVAMENTE en formato JSON:\n{\n")
	fmt.Fprintf(&b, "  \"categoria\": %s,\n", strings.Join(cats, " | "))
	b.WriteString("  \"acciones\": [\"accion_especifica\"],\n")
	b.WriteString("  \"parametros_sugeridos\": { \"parametro\": \"valor\" },\n")
	b.WriteString("  \"explicacion\": \"Explicación breve\"\n}")
	return b.String()
}

// Columns lists the known columns of an entity: its displayed fields
// followed by any search-only fields.
func (e Entity) Columns() []string {
	seen := make(map[string]bool, len(e.Fields)+len(e.SearchFields))
	out := []string{"id"}
	seen["id"] = true
	for _, f := range e.Fields {
		if !seen[f.Key] {
			seen[f.Key] = true
			out = append(out, f.Key)
		}
	}
	for _, f := range e.SearchFields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// InterpreterPrompt asks a model to turn userQuery into a single-table
// query plan with flat filters.
func InterpreterPrompt(userQuery string) string {
	attrs := make(map[string][]string, len(entities))
	for _, e := range entities {
		attrs[e.Table] = e.Columns()
	}
	// map keys marshal sorted
	attrJSON, _ := json.MarshalIndent(attrs, "", "  ")

	var b strings.Builder
	b.WriteString("Eres un experto en SQL.\n")
	fmt.Fprintf(&b, "Usuario: %q\n\n", userQuery)
	fmt.Fprintf(&b, "Tablas disponibles: %s\n", strings.Join(Tables(), ", "))
	fmt.Fprintf(&b, "Atributos de las tablas:\n%s\n\n", attrJSON)
	b.WriteString("Reglas:\n")
	b.WriteString("- Usa nombres exactos de columnas, no relaciones anidadas.\n")
	fmt.Fprintf(&b, "- Para filtrar por una tabla relacionada (%s) usa claves \"Tabla.columna\".\n", strings.Join(relatedTables, ", "))
	b.WriteString("- Si necesitas unir tablas, indica \"union\" con la condición.\n")
	b.WriteString("- Devuelve SOLO JSON plano con los campos:\n")
	b.WriteString("  { \"tabla\": \"Tabla\", \"union\": { \"tabla\": \"...\", \"condicion\": \"...\" }, \"filtros\": { \"columna\": \"valor\" } }\n")
	return b.String()
}
