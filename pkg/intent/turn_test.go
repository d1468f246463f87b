package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("full result", func(t *testing.T) {
		raw := `{
			"items": [{"item_name": "Cheeseburger", "quantity": 1}, {"item_name": "Fries", "quantity": 2.0}],
			"remove_items": [],
			"action": "add",
			"response": "Got it. Would you like anything else with that?",
			"detected_items": ["Cheeseburger", "Fries"],
			"is_final": false,
			"language": "EN"
		}`
		tr, err := Parse([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, ActionAdd, tr.Action)
		assert.Equal(t, []ItemRequest{{"Cheeseburger", 1}, {"Fries", 2}}, tr.ItemsToAdd)
		assert.Nil(t, tr.ItemsToRemove)
		assert.Equal(t, []string{"Cheeseburger", "Fries"}, tr.DetectedItems)
		assert.False(t, tr.IsFinal)
		assert.Equal(t, "en", tr.Language)
	})

	t.Run("minimal result", func(t *testing.T) {
		tr, err := Parse([]byte(`{"action":"greeting","response":"Hi there!"}`))
		require.NoError(t, err)
		assert.Equal(t, ActionGreeting, tr.Action)
		assert.Empty(t, tr.ItemsToAdd)
		assert.Empty(t, tr.Language)
	})

	t.Run("null and missing quantity", func(t *testing.T) {
		tr, err := Parse([]byte(`{"action":"add","response":"ok","items":[{"item_name":"Fries","quantity":null},{"item_name":"Hamburger"}],"is_final":null}`))
		require.NoError(t, err)
		assert.Equal(t, []ItemRequest{{"Fries", 0}, {"Hamburger", 0}}, tr.ItemsToAdd)
	})

	t.Run("quantity bounds", func(t *testing.T) {
		tr, err := Parse([]byte(`{"action":"add","response":"ok","items":[{"item_name":"Fries","quantity":99},{"item_name":"Hamburger","quantity":-1e300}]}`))
		require.NoError(t, err)
		assert.Equal(t, []ItemRequest{{"Fries", 99}, {"Hamburger", 0}}, tr.ItemsToAdd)
	})

	t.Run("code fence", func(t *testing.T) {
		tr, err := Parse([]byte("```json\n{\"action\":\"finalize\",\"response\":\"Thanks!\",\"is_final\":true}\n```"))
		require.NoError(t, err)
		assert.Equal(t, ActionFinalize, tr.Action)
		assert.True(t, tr.IsFinal)
	})

	invalid := map[string]string{
		"not json":          `I think you want fries`,
		"array":             `[{"action":"add"}]`,
		"missing action":    `{"response":"ok"}`,
		"missing response":  `{"action":"add"}`,
		"empty response":    `{"action":"add","response":""}`,
		"unknown action":    `{"action":"dance","response":"ok"}`,
		"string quantity":   `{"action":"add","response":"ok","items":[{"item_name":"Fries","quantity":"two"}]}`,
		"item without name": `{"action":"add","response":"ok","items":[{"quantity":1}]}`,
		"final not bool":    `{"action":"add","response":"ok","is_final":"yes"}`,
		"quantity over 99":  `{"action":"add","response":"ok","items":[{"item_name":"Fries","quantity":100}]}`,
		"huge quantity":     `{"action":"add","response":"ok","items":[{"item_name":"Cheeseburger","quantity":1e17}]}`,
		"huge removal":      `{"action":"remove","response":"ok","remove_items":[{"item_name":"Fries","quantity":1e300}]}`,
	}
	for name, raw := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.ErrorIs(t, err, ErrInvalidTurn)
		})
	}
}

func TestFallback(t *testing.T) {
	fb := Fallback()
	assert.Equal(t, ActionQuestion, fb.Action)
	assert.Equal(t, "I'm sorry, could you please repeat that?", fb.Response)
	assert.False(t, fb.IsFinal)
	assert.Empty(t, fb.ItemsToAdd)
	assert.Empty(t, fb.ItemsToRemove)
	assert.Empty(t, fb.DetectedItems)
}

func TestSupportedLanguage(t *testing.T) {
	for _, code := range []string{"en", "es", "fr", "ar", "de", "it", "pt", "zh", "ja", "hi"} {
		assert.True(t, SupportedLanguage(code), code)
	}
	assert.False(t, SupportedLanguage("xx"))
	assert.False(t, SupportedLanguage(""))
}
