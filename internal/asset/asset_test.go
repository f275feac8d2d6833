package asset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrrpnya/pageshelf/internal/asset"
)

func TestAssetBytes(t *testing.T) {
	a := asset.New([]byte("hello"))
	assert.Equal(t, []byte("hello"), a.Bytes())
}

func TestAssetMimeHint(t *testing.T) {
	a := asset.New([]byte("hello"))
	_, ok := a.MimeHint()
	assert.False(t, ok)

	a2 := asset.NewWithHint([]byte("hello"), "text/plain")
	hint, ok := a2.MimeHint()
	assert.True(t, ok)
	assert.Equal(t, "text/plain", hint)
}

func TestAssetTextValidUTF8(t *testing.T) {
	a := asset.New([]byte("héllo"))
	text, ok := a.Text()
	assert.True(t, ok)
	assert.Equal(t, "héllo", text)
}

func TestAssetTextInvalidUTF8(t *testing.T) {
	a := asset.New([]byte{0xff, 0xfe, 0xfd})
	_, ok := a.Text()
	assert.False(t, ok)
}
