package audit

// Schema is a Gemini response schema node.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// ResponseSchema returns the structured-output schema the auditor must follow.
func ResponseSchema() *Schema {
	str := func(desc string) *Schema {
		return &Schema{Type: "STRING", Description: desc}
	}
	return &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"score":   {Type: "NUMBER", Description: "A score from 0 to 100 representing translation quality."},
			"summary": str("A concise overview of the audit findings."),
			"issues": {
				Type: "ARRAY",
				Items: &Schema{
					Type: "OBJECT",
					Properties: map[string]*Schema{
						"type":             str("One of: Critical, Warning, Info"),
						"category":         str("One of: Accuracy, Grammar, Safety, Style"),
						"original_segment": str("The specific Chinese text snippet"),
						"target_segment":   str("The exact text substring from the translation that has the issue"),
						"suggestion":       str("Proposed correction"),
						"reason":           str("Explanation of the issue"),
					},
					Required: []string{"type", "category", "original_segment", "target_segment", "suggestion", "reason"},
				},
			},
		},
		Required: []string{"score", "summary", "issues"},
	}
}
