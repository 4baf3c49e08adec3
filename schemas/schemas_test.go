package schemas_test

import (
	"encoding/json"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/interview-kit/schemas"
)

func TestAllSchemaFiles_Compile(t *testing.T) {
	files, err := fs.Glob(schemas.FS, "*.schema.json")
	require.NoError(t, err)
	require.Contains(t, files, schemas.GeneratedQuestion)

	for _, name := range files {
		t.Run(name, func(t *testing.T) {
			data, err := fs.ReadFile(schemas.FS, name)
			require.NoError(t, err)

			var v any
			require.NoError(t, json.Unmarshal(data, &v), "schema file should be valid JSON")

			_, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
			assert.NoError(t, err, "schema should compile")
		})
	}
}
