package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyDeterministicAcrossFilterOrder(t *testing.T) {
	a := NewQuery("series", map[string]string{"tenor": "10Y", "lookback": "5"})
	b := NewQuery("series", map[string]string{"lookback": "5", "tenor": "10Y"})

	assert.Equal(t, a.Key(), b.Key())
}

func TestKeyChangesWithFilterValues(t *testing.T) {
	a := NewQuery("series", map[string]string{"tenor": "10Y"})
	b := NewQuery("series", map[string]string{"tenor": "30Y"})
	c := NewQuery("baseline", map[string]string{"tenor": "10Y"})

	assert.NotEqual(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestKeyCarriesIntentPrefix(t *testing.T) {
	q := NewQuery("series", map[string]string{"tenor": "5Y"})
	assert.Regexp(t, `^series:[0-9a-f]{32}$`, q.Key())
}
