package gemini

import "github.com/kgouthamk/my-first-agent/internal/domain"

// Schema type names used by the function-calling API.
const (
	TypeObject = "OBJECT"
	TypeString = "STRING"
)

// Tool groups function declarations in the shape generateContent expects.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations"`
}

type FunctionDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

type ParameterSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

type PropertySchema struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// TranslateTools maps registry declarations onto function declarations.
// Every parameter becomes a STRING property; the required list is copied
// unchanged. Returns nil when there are no declarations.
func TranslateTools(decls []domain.ToolDeclaration) []Tool {
	if len(decls) == 0 {
		return nil
	}
	fns := make([]FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		props := make(map[string]PropertySchema, len(d.Parameters))
		for _, p := range d.Parameters {
			props[p.Name] = PropertySchema{Type: TypeString, Description: p.Description}
		}
		required := make([]string, len(d.Required))
		copy(required, d.Required)
		fns = append(fns, FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters: ParameterSchema{
				Type:       TypeObject,
				Properties: props,
				Required:   required,
			},
		})
	}
	return []Tool{{FunctionDeclarations: fns}}
}
