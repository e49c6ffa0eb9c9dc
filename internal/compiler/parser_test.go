package compiler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/procflow/pkg/domain"
	"github.com/aretw0/procflow/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphYAML = `
$proc: [dag, traverse]
input:
  visit:
    - $proc: [ci, build]
      $name: build
      input:
        target: ./...
    - $proc: chat.post
      $when: $parent
      input:
        ok: {$ref: build.success}
        retries: 3
`

func TestParseYAML(t *testing.T) {
	ref, err := NewParser().Parse([]byte(graphYAML))
	require.NoError(t, err)

	want := dsl.Traverse(
		dsl.Proc("ci", "build").Name("build").Input(map[string]any{"target": "./..."}),
		dsl.Proc("chat", "post").When(domain.WhenParent).Input(map[string]any{
			"ok":      dsl.Ref("build.success"),
			"retries": 3,
		}),
	).Ref()
	assert.Equal(t, want, ref)
}

func TestParseJSON(t *testing.T) {
	data := `{"$proc":["echo"],"input":{"list":[{"$ref":"$last"},1]},"$name":"e"}`
	ref, err := NewParser().Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, domain.NewPath("echo"), ref.Proc)
	assert.Equal(t, "e", ref.Name)
	assert.Equal(t, map[string]any{"list": []any{dsl.Last(), float64(1)}}, ref.Input)
}

func TestParse_DefaultsInputToEmptyObject(t *testing.T) {
	ref, err := NewParser().Parse([]byte(`{"$proc":["echo"]}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, ref.Input)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"root is not a procedure", `{"a": 1}`, ErrNotProcedure},
		{"empty path", `{"$proc": []}`, domain.ErrInvalidPath},
		{"non string segment", `{"$proc": [1]}`, ErrInvalidMarker},
		{"unknown marker key", `{"$proc": ["a"], "$bogus": true}`, ErrInvalidMarker},
		{"ref with extra keys", `{"$proc": ["a"], "input": {"$ref": "x", "y": 1}}`, ErrInvalidMarker},
		{"ref not a string", `{"$proc": ["a"], "input": {"$ref": 1}}`, ErrInvalidMarker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewParser().Parse([]byte("{not json"))
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "graph.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(graphYAML), 0644))

	ref, err := NewParser().ParseFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, dsl.TraversePath, ref.Proc)

	_, err = NewParser().ParseFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_KeepsExplicitNullInput(t *testing.T) {
	data, err := json.Marshal(dsl.Proc("echo").Input(nil).Ref())
	require.NoError(t, err)

	ref, err := NewParser().Parse(data)
	require.NoError(t, err)
	assert.Nil(t, ref.Input)

	ref, err = NewParser().ParseYAML([]byte("$proc: [echo]\ninput: null\n"))
	require.NoError(t, err)
	assert.Nil(t, ref.Input)
}
