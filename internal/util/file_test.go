package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMimeType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	mime, err := ValidateMimeType(bytes.NewReader(png), []string{MimeImage})
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = ValidateMimeType(bytes.NewReader([]byte("plain text")), []string{MimeImage})
	assert.Error(t, err)
}

func TestHasImageExtension(t *testing.T) {
	assert.True(t, HasImageExtension("me.PNG"))
	assert.False(t, HasImageExtension("me.svg"))
	assert.False(t, HasImageExtension("noext"))
}
