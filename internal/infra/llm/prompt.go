package llm

import (
	"fmt"
	"strings"
)

// Schema describes the JSON object a prompt asks the model to return.
type Schema struct {
	Name        string
	Description string
	Fields      []SchemaField
}

type SchemaField struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// BuildPrompt renders schema and the task-specific instructions into a prompt.
func BuildPrompt(schema Schema, instructions string) string {
	var sb strings.Builder

	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = `"string"`
		}
		required := ""
		if field.Required {
			required = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  %q: %s%s", field.Name, typeHint, required))
		if field.Description != "" {
			sb.WriteString(" // " + field.Description)
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")

	if instructions != "" {
		sb.WriteString("\n")
		sb.WriteString(instructions)
		sb.WriteString("\n")
	}
	sb.WriteString("\nReturn ONLY the JSON object, no markdown, no explanation.\n")
	return sb.String()
}
