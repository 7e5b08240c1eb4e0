package sniffer

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHead(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		want MediaType
		mime string
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}, TypeJPEG, "image/jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}, TypePNG, "image/png"},
		{"gif87", []byte("GIF87a......"), TypeGIF, "image/gif"},
		{"gif89", []byte("GIF89a......"), TypeGIF, "image/gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), TypeWEBP, "image/webp"},
		{"svg", []byte("<svg xmlns=\"http://www.w3.org/2000/svg\">"), TypeSVG, "image/svg+xml"},
		{"svg with xml decl", []byte("  <?xml version=\"1.0\"?><svg>"), TypeSVG, "image/svg+xml"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := DetectHead(tc.head)
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.Type)
			assert.Equal(t, tc.mime, result.MIME)
		})
	}
}

func TestDetectHeadUnknown(t *testing.T) {
	_, err := DetectHead([]byte("plain text, not an image"))
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = DetectHead(nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDetectAndReassemblePreservesStream(t *testing.T) {
	payload := append([]byte{0xff, 0xd8, 0xff, 0xe0}, bytes.Repeat([]byte{0xab}, 1024)...)

	result, head, err := Detect(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, TypeJPEG, result.Type)
	assert.Len(t, head, 512)

	rest := bytes.NewReader(payload[len(head):])
	round, err := io.ReadAll(Reassemble(head, rest))
	require.NoError(t, err)
	assert.Equal(t, payload, round)
}

func TestDetectShortStream(t *testing.T) {
	// Shorter than the sniff window but still classifiable.
	result, head, err := Detect(strings.NewReader("GIF89a"))
	require.NoError(t, err)
	assert.Equal(t, TypeGIF, result.Type)
	assert.Equal(t, []byte("GIF89a"), head)
}
