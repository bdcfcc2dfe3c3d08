package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flookyhq/flooky-tools/internal/normalize"
	"github.com/flookyhq/flooky-tools/internal/schema"
)

func TestExtractObject_Simple(t *testing.T) {
	t.Parallel()
	got, ok := normalize.ExtractObject(`prose before {"a": 1} prose after`)
	require.True(t, ok)
	assert.Equal(t, `{"a": 1}`, got)
}

func TestExtractObject_Nested(t *testing.T) {
	t.Parallel()
	got, ok := normalize.ExtractObject(`x {"a": {"b": {"c": 2}}} y`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": {"c": 2}}}`, got)
}

func TestExtractObject_BracesInsideStrings(t *testing.T) {
	t.Parallel()
	in := `note {"msg": "has } and { inside", "quote": "escaped \" brace }"} tail`
	got, ok := normalize.ExtractObject(in)
	require.True(t, ok)
	assert.Equal(t, `{"msg": "has } and { inside", "quote": "escaped \" brace }"}`, got)
}

func TestExtractObject_NoObject(t *testing.T) {
	t.Parallel()
	_, ok := normalize.ExtractObject("no json here at all")
	assert.False(t, ok)
}

func TestExtractObject_Unbalanced(t *testing.T) {
	t.Parallel()
	_, ok := normalize.ExtractObject(`{"a": {"b": 1}`)
	assert.False(t, ok)
}

func TestCleanResponse_Fences(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `{"a":1}`, normalize.CleanResponse("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, normalize.CleanResponse("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, normalize.CleanResponse(`{"a":1}`))
}

func intp(i int) *int { return &i }

func billSchema() schema.TaskSchema {
	return schema.TaskSchema{
		Task: "bill",
		Fields: []schema.Field{
			{Name: "items", Kind: schema.KindList, ItemFields: []schema.Field{
				{Name: "name", Kind: schema.KindString, Default: "Unknown"},
				{Name: "amount", Kind: schema.KindNumber, Required: true},
				{Name: "category", Kind: schema.KindString, Default: "Unknown"},
			}},
			{Name: "total", Kind: schema.KindNumber, Default: 0.0, SumOf: "items.amount"},
			{Name: "summary", Kind: schema.KindString, Default: "n/a", Fallback: "Could not extract.", FallbackES: "No se pudo extraer."},
		},
	}
}

func scoreSchema() schema.TaskSchema {
	return schema.TaskSchema{
		Task: "score",
		Fields: []schema.Field{
			{Name: "score", Kind: schema.KindBoundedInt, Default: 50, Min: intp(0), Max: intp(100)},
		},
	}
}

func TestNormalize_BoundedIntClamping(t *testing.T) {
	t.Parallel()
	cases := map[string]int{
		`{"score": 150}`:    100,
		`{"score": -5}`:     0,
		`{"score": "high"}`: 50,
		`{"score": 72}`:     72,
	}
	for raw, want := range cases {
		doc, ok := normalize.Normalize(scoreSchema(), raw, normalize.Options{})
		require.True(t, ok, raw)
		assert.Equal(t, want, doc["score"], raw)
	}
}

func TestNormalize_TotalRecomputedFromItems(t *testing.T) {
	t.Parallel()
	raw := `{"items": [{"name": "a", "amount": 10.5}, {"name": "b", "amount": 4.25}], "summary": "ok"}`
	doc, ok := normalize.Normalize(billSchema(), raw, normalize.Options{})
	require.True(t, ok)
	assert.InDelta(t, 14.75, doc["total"], 1e-9)
}

func TestNormalize_ReportedTotalKept(t *testing.T) {
	t.Parallel()
	raw := `{"items": [{"amount": 10}], "total": 99.5}`
	doc, ok := normalize.Normalize(billSchema(), raw, normalize.Options{})
	require.True(t, ok)
	assert.InDelta(t, 99.5, doc["total"], 1e-9)
}

func TestNormalize_RequiredNumberHandlingPerItem(t *testing.T) {
	t.Parallel()
	// A missing amount is kept at zero; an uncoercible one drops the item.
	raw := `{"items": [{"name": "kept", "amount": "12.5"}, {"name": "zeroed"}, {"name": "dropped", "amount": "n/a"}]}`
	doc, ok := normalize.Normalize(billSchema(), raw, normalize.Options{})
	require.True(t, ok)
	items, isList := doc["items"].([]any)
	require.True(t, isList)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "kept", first["name"])
	assert.InDelta(t, 12.5, first["amount"], 1e-9)
	assert.Equal(t, "Unknown", first["category"])
	second := items[1].(map[string]any)
	assert.Equal(t, "zeroed", second["name"])
	assert.InDelta(t, 0.0, second["amount"], 1e-9)
}

func TestNormalize_UnknownKeysDropped(t *testing.T) {
	t.Parallel()
	raw := `{"score": 10, "extra": "ignored"}`
	doc, ok := normalize.Normalize(scoreSchema(), raw, normalize.Options{})
	require.True(t, ok)
	_, present := doc["extra"]
	assert.False(t, present)
}

func TestNormalize_FallbackCarriesRawVerbatim(t *testing.T) {
	t.Parallel()
	raw := "I could not produce any structured output, sorry."
	doc, ok := normalize.Normalize(billSchema(), raw, normalize.Options{})
	require.False(t, ok)
	assert.Equal(t, raw, doc[normalize.RawResponseKey])
	assert.Equal(t, "Could not extract.", doc["summary"])
	assert.Equal(t, []any{}, doc["items"])
}

func TestNormalize_FallbackSpanish(t *testing.T) {
	t.Parallel()
	doc, ok := normalize.Normalize(billSchema(), "nada", normalize.Options{Spanish: true})
	require.False(t, ok)
	assert.Equal(t, "No se pudo extraer.", doc["summary"])
}

func TestNormalize_UnparseableObjectFallsBack(t *testing.T) {
	t.Parallel()
	raw := `{"score": 10,,}`
	doc, ok := normalize.Normalize(scoreSchema(), raw, normalize.Options{})
	require.False(t, ok)
	assert.Equal(t, raw, doc[normalize.RawResponseKey])
}

func TestNormalize_ObjectFieldCoercion(t *testing.T) {
	t.Parallel()
	sch := schema.TaskSchema{Task: "t", Fields: []schema.Field{
		{Name: "risk", Kind: schema.KindObject, Fields: []schema.Field{
			{Name: "level", Kind: schema.KindString, Default: "Medium"},
			{Name: "pct", Kind: schema.KindBoundedInt, Default: 50, Min: intp(0), Max: intp(100)},
		}},
	}}
	doc, ok := normalize.Normalize(sch, `{"risk": {"pct": 120}}`, normalize.Options{})
	require.True(t, ok)
	risk := doc["risk"].(map[string]any)
	assert.Equal(t, "Medium", risk["level"])
	assert.Equal(t, 100, risk["pct"])

	doc, ok = normalize.Normalize(sch, `{"risk": "not an object"}`, normalize.Options{})
	require.True(t, ok)
	assert.Equal(t, map[string]any{}, doc["risk"])
}

func TestNormalize_StringCoercion(t *testing.T) {
	t.Parallel()
	sch := schema.TaskSchema{Task: "t", Fields: []schema.Field{
		{Name: "s", Kind: schema.KindString, Default: "def"},
	}}
	doc, _ := normalize.Normalize(sch, `{"s": 3}`, normalize.Options{})
	assert.Equal(t, "3", doc["s"])
	doc, _ = normalize.Normalize(sch, `{"s": true}`, normalize.Options{})
	assert.Equal(t, "true", doc["s"])
	doc, _ = normalize.Normalize(sch, `{"s": [1]}`, normalize.Options{})
	assert.Equal(t, "def", doc["s"])
}

func TestSumNumbers(t *testing.T) {
	t.Parallel()
	items := []any{
		map[string]any{"amount": 1.5},
		map[string]any{"amount": "2.5"},
		map[string]any{"amount": "bad"},
		"not a map",
	}
	assert.InDelta(t, 4.0, normalize.SumNumbers(items, "amount"), 1e-9)
}
