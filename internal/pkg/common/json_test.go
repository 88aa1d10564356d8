package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", raw: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", raw: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around", raw: "Here you go: {\"a\":{\"b\":2}} enjoy", want: `{"a":{"b":2}}`},
		{name: "no object", raw: "sorry, no recipe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	var v map[string]interface{}
	assert.NoError(t, ParseJSON(`{"a":1}`, &v))
	assert.Error(t, ParseJSON(`{"a":1} {"b":2}`, &v))
}

func TestQuoteJSONKeys(t *testing.T) {
	assert.Equal(t, `{"name": "rice", "quantity": "1 cup"}`, QuoteJSONKeys(`{name: "rice", quantity: "1 cup"}`))
}

func TestCustomErrorWrapAndStatus(t *testing.T) {
	cause := errors.New("upstream down")
	err := ErrRecipeUnavailable.Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(cause))
	assert.Nil(t, ErrRecipeUnavailable.Err, "predefined error must not be mutated")
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "recipe:masala dosa", CacheKey("recipe", "  Masala   Dosa "))
}
