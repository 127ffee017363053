package textstream_test

import (
	"strings"
	"testing"

	"github.com/MegaGrindStone/cv-assess-web/internal/textstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAll(chunks [][]byte) string {
	d := textstream.NewDecoder()
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(d.Decode(c))
	}
	sb.WriteString(d.Flush())
	return sb.String()
}

func TestDecoderSplitsAtEveryBoundary(t *testing.T) {
	text := "Résumé: 履歴書 ✓ 🚀 naïve café"
	b := []byte(text)

	for i := 0; i <= len(b); i++ {
		for j := i; j <= len(b); j++ {
			got := decodeAll([][]byte{b[:i], b[i:j], b[j:]})
			require.Equal(t, text, got, "split at %d and %d", i, j)
		}
	}
}

func TestDecoderByteAtATime(t *testing.T) {
	text := "Match score: 62% 🎯"
	var chunks [][]byte
	for _, c := range []byte(text) {
		chunks = append(chunks, []byte{c})
	}

	assert.Equal(t, text, decodeAll(chunks))
}

func TestDecoderHoldsPartialSequence(t *testing.T) {
	d := textstream.NewDecoder()
	euro := []byte("€")

	assert.Equal(t, "a", d.Decode(append([]byte("a"), euro[:2]...)))
	assert.Equal(t, 2, d.Pending())
	assert.Equal(t, "€b", d.Decode(append(euro[2:], 'b')))
	assert.Equal(t, 0, d.Pending())
}

func TestDecoderFlushReplacesDanglingSequence(t *testing.T) {
	d := textstream.NewDecoder()
	euro := []byte("€")

	assert.Equal(t, "x", d.Decode(append([]byte("x"), euro[:1]...)))
	assert.Equal(t, "�", d.Flush())
	assert.Equal(t, 0, d.Pending())
	assert.Equal(t, "", d.Flush())
}

func TestDecoderInvalidBytes(t *testing.T) {
	d := textstream.NewDecoder()

	assert.Equal(t, "a�b", d.Decode([]byte{'a', 0xff, 'b'}))
}

func TestDecoderEmptyChunks(t *testing.T) {
	d := textstream.NewDecoder()

	assert.Equal(t, "", d.Decode(nil))
	assert.Equal(t, "", d.Decode([]byte{}))
	assert.Equal(t, "", d.Flush())
}
