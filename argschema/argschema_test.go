package argschema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/branchrun/agentry/argschema"
)

func schemaXY() argschema.Schema {
	return argschema.Schema{
		{Name: "x", Type: argschema.Integer},
		{Name: "label", Type: argschema.Text, Optional: true, AllowedValues: []string{"a", "b"}},
		{Name: "flag", Type: argschema.Boolean, Optional: true},
	}
}

func TestValidateAndCoerce_MissingRequired(t *testing.T) {
	_, err := argschema.ValidateAndCoerce("demo", schemaXY(), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "demo")
}

func TestValidateAndCoerce_UnknownKey(t *testing.T) {
	_, err := argschema.ValidateAndCoerce("demo", schemaXY(), map[string]any{"x": 1, "bogus": true})
	require.Error(t, err)
}

func TestValidateAndCoerce_DropsAbsentOptional(t *testing.T) {
	b, err := argschema.ValidateAndCoerce("demo", schemaXY(), map[string]any{"x": 1})
	require.NoError(t, err)
	_, ok := b["label"]
	assert.False(t, ok)
	assert.Equal(t, int64(1), b["x"].Int)
}

func TestValidateAndCoerce_BooleanTextCoercion(t *testing.T) {
	b, err := argschema.ValidateAndCoerce("demo", schemaXY(), map[string]any{"x": 1, "flag": "TRUE"})
	require.NoError(t, err)
	assert.True(t, b["flag"].Bool)
}

func TestValidateAndCoerce_NonBooleanTextRejected(t *testing.T) {
	_, err := argschema.ValidateAndCoerce("demo", schemaXY(), map[string]any{"x": 1, "flag": "maybe"})
	require.Error(t, err)
}

func TestValidateAndCoerce_EnumMembership(t *testing.T) {
	_, err := argschema.ValidateAndCoerce("demo", schemaXY(), map[string]any{"x": 1, "label": "c"})
	require.Error(t, err)

	b, err := argschema.ValidateAndCoerce("demo", schemaXY(), map[string]any{"x": 1, "label": "a"})
	require.NoError(t, err)
	assert.Equal(t, "a", b["label"].Text)
}

func TestValidateAndCoerce_Idempotent(t *testing.T) {
	inputs := map[string]any{"x": 1, "label": "a", "flag": true}
	b1, err := argschema.ValidateAndCoerce("demo", schemaXY(), inputs)
	require.NoError(t, err)
	b2, err := argschema.ValidateAndCoerce("demo", schemaXY(), b1.Plain())
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestSchemaValidate_RejectsEnumOnNonText(t *testing.T) {
	s := argschema.Schema{{Name: "x", Type: argschema.Integer, AllowedValues: []string{"a"}}}
	require.Error(t, s.Validate())
}

func TestSchemaValidate_RejectsDuplicateNames(t *testing.T) {
	s := argschema.Schema{
		{Name: "x", Type: argschema.Integer},
		{Name: "x", Type: argschema.Text},
	}
	require.Error(t, s.Validate())
}
