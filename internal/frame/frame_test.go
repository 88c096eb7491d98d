package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReaderFeedEscapeRoundTrip(t *testing.T) {
	// 0xAA, literal 0x05 (escaped), then the terminating OUTPUT_END.
	r := &Reader{}
	seq := []byte{0xAA, EscSequence, 0x05, OutputEnd}
	var done bool
	for _, b := range seq {
		if r.Feed(b) == Done {
			done = true
			break
		}
	}
	assert.True(t, done)
	assert.Equal(t, []byte{0xAA, 0x05}, r.Output)
}

func TestReaderFeedNoEscapedControlBytes(t *testing.T) {
	r := &Reader{}
	for _, b := range []byte{0x01, 0x02, 0x03} {
		assert.Equal(t, Continue, r.Feed(b))
	}
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, r.Output)
}

func TestIsError(t *testing.T) {
	assert.False(t, IsError(245))
	assert.True(t, IsError(246))
	assert.True(t, IsError(255))
	assert.False(t, IsError(0))
}

// TestEscapeRoundTripProperty mirrors spec.md §8's escape round-trip property:
// for any byte string, escaping every control byte before it and framing
// it with OUTPUT/OUTPUT_END decodes back to the original bytes.
func TestEscapeRoundTripProperty(t *testing.T) {
	controlBytes := []byte{OK, SendInput, Rejected, Output, OutputEnd, EscSequence, WaitUserConfirm, Locked}
	cases := [][]byte{
		{},
		{0x00},
		controlBytes,
		{0xFF, 0x00, EscSequence, OutputEnd, 0x7E},
	}
	for _, want := range cases {
		encoded := encodeOutputRecord(want)
		r := &Reader{}
		var done bool
		for _, b := range encoded {
			if r.Feed(b) == Done {
				done = true
				break
			}
		}
		assert.True(t, done)
		assert.Equal(t, want, r.Output)
	}
}

// encodeOutputRecord escapes every control byte and does not include the
// framing OUTPUT byte (the caller/engine consumes that to enter READING);
// it appends the terminating OUTPUT_END.
func encodeOutputRecord(payload []byte) []byte {
	isControl := func(b byte) bool {
		switch b {
		case OK, SendInput, Rejected, Output, OutputEnd, EscSequence, WaitUserConfirm, Locked:
			return true
		default:
			return IsError(b)
		}
	}
	out := make([]byte, 0, len(payload)+2)
	for _, b := range payload {
		if isControl(b) {
			out = append(out, EscSequence)
		}
		out = append(out, b)
	}
	out = append(out, OutputEnd)
	return out
}
