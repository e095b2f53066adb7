package gemini

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgouthamk/my-first-agent/internal/domain"
)

func TestTranslateTools(t *testing.T) {
	decls := []domain.ToolDeclaration{
		nutritionDecl(),
		{Name: "noop", Description: "No parameters"},
	}

	tools := TranslateTools(decls)
	require.Len(t, tools, 1)
	fns := tools[0].FunctionDeclarations
	require.Len(t, fns, 2)

	require.Equal(t, "get_nutrition", fns[0].Name)
	require.Equal(t, TypeObject, fns[0].Parameters.Type)
	require.Equal(t, PropertySchema{Type: TypeString, Description: "The food item"}, fns[0].Parameters.Properties["food"])
	require.Equal(t, []string{"food"}, fns[0].Parameters.Required)

	raw, err := json.Marshal(fns[1].Parameters)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"OBJECT","properties":{},"required":[]}`, string(raw))
}

func TestTranslateTools_DoesNotAliasRequired(t *testing.T) {
	decl := nutritionDecl()
	tools := TranslateTools([]domain.ToolDeclaration{decl})
	decl.Required[0] = "changed"
	require.Equal(t, "food", tools[0].FunctionDeclarations[0].Parameters.Required[0])
}

func TestTranslateTools_Empty(t *testing.T) {
	require.Nil(t, TranslateTools(nil))
}
