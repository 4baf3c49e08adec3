package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schemafiles "github.com/jonathan/interview-kit/schemas"
)

func TestLoad_GeneratedQuestion(t *testing.T) {
	s, err := Load(schemafiles.GeneratedQuestion)
	require.NoError(t, err)

	again, err := Load(schemafiles.GeneratedQuestion)
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("nope.schema.json")

	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "not found")
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile("broken", `{"type": 12}`)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestValidate_GeneratedQuestion(t *testing.T) {
	s, err := Load(schemafiles.GeneratedQuestion)
	require.NoError(t, err)

	tests := []struct {
		name    string
		doc     any
		wantErr bool
	}{
		{"full", map[string]any{"question": "Q", "answer": "A", "difficulty": "hard", "is_coding": true}, false},
		{"loose scalars", map[string]any{"question": "Q", "difficulty": float64(3), "is_coding": "yes"}, false},
		{"nulls", map[string]any{"question": "Q", "answer": nil, "is_coding": nil}, false},
		{"missing question", map[string]any{"answer": "A"}, true},
		{"empty question", map[string]any{"question": ""}, true},
		{"not an object", []any{"Q"}, true},
		{"wrong type", map[string]any{"question": 42}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.doc)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidateString(t *testing.T) {
	s, err := Compile("inline", `{"type":"object","required":["name"]}`)
	require.NoError(t, err)

	assert.NoError(t, s.ValidateString(`{"name":"x"}`))
	assert.Error(t, s.ValidateString(`{}`))
}
