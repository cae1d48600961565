package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, ParsePage(""))
	assert.Equal(t, 1, ParsePage("-3"))
	assert.Equal(t, 4, ParsePage("4"))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 10, ClampLimit("", 10))
	assert.Equal(t, 10, ClampLimit("0", 10))
	assert.Equal(t, 5, ClampLimit("5", 10))
	assert.Equal(t, MaxPageSize, ClampLimit("1000", 10))
}

func TestMustParseUint(t *testing.T) {
	assert.Equal(t, uint(12), MustParseUint("12"))
	assert.Equal(t, uint(0), MustParseUint("abc"))
}
