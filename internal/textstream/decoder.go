// Package textstream decodes a byte stream into text one chunk at a time.
package textstream

import (
	"errors"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder turns successive byte chunks of a UTF-8 stream into text. A multi-byte sequence split across
// two chunks is held back until the rest of it arrives, so concatenating the results of Decode and
// Flush always equals decoding the whole stream at once. Invalid bytes become U+FFFD.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	t       transform.Transformer
	pending []byte
}

// NewDecoder returns a Decoder with no buffered input.
func NewDecoder() *Decoder {
	return &Decoder{t: unicode.UTF8.NewDecoder()}
}

// Decode returns the text completed by chunk. Bytes of an incomplete trailing sequence are retained for
// the next call.
func (d *Decoder) Decode(chunk []byte) string {
	return d.transform(chunk, false)
}

// Flush returns whatever is still buffered, replacing an incomplete sequence with U+FFFD, and resets the
// Decoder for a new stream.
func (d *Decoder) Flush() string {
	s := d.transform(nil, true)
	d.t.Reset()
	return s
}

// Pending reports how many bytes are held back waiting for the rest of a sequence.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

func (d *Decoder) transform(chunk []byte, atEOF bool) string {
	src := append(d.pending, chunk...)
	d.pending = nil
	if len(src) == 0 {
		return ""
	}

	// Every source byte expands to at most the three bytes of U+FFFD.
	dst := make([]byte, 3*len(src))
	nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
	if errors.Is(err, transform.ErrShortSrc) {
		d.pending = append([]byte(nil), src[nSrc:]...)
	}
	return string(dst[:nDst])
}
