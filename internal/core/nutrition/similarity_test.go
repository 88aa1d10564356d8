package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	assert.Equal(t, 100.0, Ratio("paneer", "paneer"))
	assert.Equal(t, 100.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abc", ""))
	assert.InDelta(t, 66.67, Ratio("abc", "abd"), 0.01)
	assert.InDelta(t, 87.5, Ratio("capsicun", "capsicum"), 1e-9)
	assert.Equal(t, Ratio("brinjal", "bringal"), Ratio("bringal", "brinjal"))
}

func TestTokenSortRatio(t *testing.T) {
	assert.Equal(t, 100.0, TokenSortRatio("dal, urad", "urad dal"))
	assert.Equal(t, 100.0, TokenSortRatio("beans green", "Green Beans"))
	assert.Less(t, Ratio("beans green", "green beans"), 80.0)
}
