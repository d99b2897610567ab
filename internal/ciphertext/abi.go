package ciphertext

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// WordSize is the ABI word size: every cleartext is one 32-byte big-endian word.
const WordSize = 32

var ErrMalformedCleartext = errors.New("malformed abi cleartexts")

// EncodeCleartexts ABI-encodes values as consecutive uint256 words.
func EncodeCleartexts(values ...uint64) []byte {
	out := make([]byte, WordSize*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(out[(i+1)*WordSize-8:(i+1)*WordSize], v)
	}
	return out
}

// DecodeCleartexts decodes one word per width, requiring each value to fit
// its declared width and the payload to hold exactly len(widths) words.
func DecodeCleartexts(data []byte, widths []Width) ([]uint64, error) {
	if len(data) != WordSize*len(widths) {
		return nil, fmt.Errorf("%w: got %d bytes for %d words", ErrMalformedCleartext, len(data), len(widths))
	}
	values := make([]uint64, len(widths))
	for i, w := range widths {
		word := data[i*WordSize : (i+1)*WordSize]
		for _, b := range word[:WordSize-8] {
			if b != 0 {
				return nil, fmt.Errorf("%w: word %d exceeds 64 bits", ErrMalformedCleartext, i)
			}
		}
		v := binary.BigEndian.Uint64(word[WordSize-8:])
		if !w.Fits(v) {
			return nil, fmt.Errorf("%w: word %d does not fit %s", ErrMalformedCleartext, i, w)
		}
		values[i] = v
	}
	return values, nil
}
