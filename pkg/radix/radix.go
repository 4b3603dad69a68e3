// Package radix encodes integers as sequences of encrypted digit blocks in a
// fixed base (the message modulus). Each block is an LWE ciphertext of
// lweDimension+1 64-bit words: the mask followed by the body. The engine
// treats ciphertext buffers as uninterpreted memory; this package defines
// their size and the host-side encode/decode used by the simulator backend,
// the CLI and the tests.
package radix

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Encoding describes the block layout of a radix ciphertext.
type Encoding struct {
	// LWEDimension is the mask length of each block.
	LWEDimension int
	// MessageModulus is the radix base; each block carries one digit below it.
	MessageModulus uint64
	// CarryModulus scales the encoding so digit arithmetic has carry room.
	CarryModulus uint64
	// Blocks is the number of digit blocks.
	Blocks int
}

// Validate checks the structural constraints of the encoding. Host-side
// encode/decode works on uint64 values, so the total message width is capped
// at 64 bits.
func (e Encoding) Validate() error {
	if e.LWEDimension <= 0 {
		return fmt.Errorf("lwe dimension must be > 0, got %d", e.LWEDimension)
	}
	if e.Blocks <= 0 {
		return fmt.Errorf("block count must be > 0, got %d", e.Blocks)
	}
	if e.MessageModulus < 2 || !isPowerOfTwo(e.MessageModulus) {
		return fmt.Errorf("message modulus must be a power of two >= 2, got %d", e.MessageModulus)
	}
	if e.CarryModulus < 1 || !isPowerOfTwo(e.CarryModulus) {
		return fmt.Errorf("carry modulus must be a power of two >= 1, got %d", e.CarryModulus)
	}
	if bits.Len64(e.MessageModulus*e.CarryModulus) > 63 {
		return fmt.Errorf("message*carry modulus %d leaves no padding bit", e.MessageModulus*e.CarryModulus)
	}
	if e.MessageBits() > 64 {
		return fmt.Errorf("total message width %d bits exceeds 64", e.MessageBits())
	}
	return nil
}

// BlockWords is the word count of one block: the mask plus the body.
func (e Encoding) BlockWords() int { return e.LWEDimension + 1 }

// Words is the word count of the whole ciphertext.
func (e Encoding) Words() int { return e.Blocks * e.BlockWords() }

// Bytes is the byte size of the whole ciphertext on a device.
func (e Encoding) Bytes() int64 { return int64(e.Words()) * 8 }

// MessageBits is the total plaintext width carried by the ciphertext.
func (e Encoding) MessageBits() int { return e.Blocks * log2u64(e.MessageModulus) }

// MaxValue is the largest encodable integer.
func (e Encoding) MaxValue() uint64 {
	if e.MessageBits() >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << e.MessageBits()) - 1
}

// delta is the plaintext scaling factor: values live in the top bits of the
// 2^64 torus, below one padding bit.
func (e Encoding) delta() uint64 {
	return uint64(1) << (63 - log2u64(e.MessageModulus*e.CarryModulus))
}

// Digits splits value into Blocks digits, least significant first.
func (e Encoding) Digits(value uint64) []uint64 {
	digits := make([]uint64, e.Blocks)
	for i := range digits {
		digits[i] = value % e.MessageModulus
		value /= e.MessageModulus
	}
	return digits
}

// Compose reassembles a value from digits, least significant first. Digits
// are reduced modulo the message modulus first, so blocks carrying stale
// carry bits still compose to the intended value.
func (e Encoding) Compose(digits []uint64) uint64 {
	var value uint64
	for i := len(digits) - 1; i >= 0; i-- {
		value = value*e.MessageModulus + digits[i]%e.MessageModulus
	}
	return value
}

// Ciphertext is a host-side radix ciphertext.
type Ciphertext struct {
	enc   Encoding
	words []uint64
}

// NewCiphertext returns an all-zero ciphertext of the given encoding.
func NewCiphertext(enc Encoding) *Ciphertext {
	return &Ciphertext{enc: enc, words: make([]uint64, enc.Words())}
}

// EncodeTrivial encodes value with zero masks and no noise. Trivial
// ciphertexts decrypt under any key.
func (e Encoding) EncodeTrivial(value uint64) *Ciphertext {
	ct := NewCiphertext(e)
	copy(ct.words, EncodeValue(e, value))
	return ct
}

// Encoding returns the layout of the ciphertext.
func (c *Ciphertext) Encoding() Encoding { return c.enc }

// WordsRaw exposes the backing words.
func (c *Ciphertext) WordsRaw() []uint64 { return c.words }

// Bytes serializes the ciphertext words little-endian, matching the device
// buffer layout.
func (c *Ciphertext) Bytes() []byte { return WordsToBytes(c.words) }

// CiphertextFromBytes deserializes a device-layout ciphertext.
func CiphertextFromBytes(enc Encoding, b []byte) (*Ciphertext, error) {
	if int64(len(b)) != enc.Bytes() {
		return nil, fmt.Errorf("ciphertext size %d does not match encoding size %d", len(b), enc.Bytes())
	}
	return &Ciphertext{enc: enc, words: BytesToWords(b)}, nil
}

// EncodeValue produces the trivial (zero-mask) words for value.
func EncodeValue(e Encoding, value uint64) []uint64 {
	words := make([]uint64, e.Words())
	delta := e.delta()
	for i, digit := range e.Digits(value) {
		body := i*e.BlockWords() + e.LWEDimension
		words[body] = digit * delta
	}
	return words
}

// DecryptValue recovers the plaintext of a ciphertext under key. It accepts
// both trivial and key-encrypted blocks.
func DecryptValue(e Encoding, key []uint64, words []uint64) (uint64, error) {
	if len(key) != e.LWEDimension {
		return 0, fmt.Errorf("key length %d does not match lwe dimension %d", len(key), e.LWEDimension)
	}
	if len(words) != e.Words() {
		return 0, fmt.Errorf("ciphertext length %d does not match encoding length %d", len(words), e.Words())
	}
	delta := e.delta()
	space := e.MessageModulus * e.CarryModulus
	digits := make([]uint64, e.Blocks)
	for i := 0; i < e.Blocks; i++ {
		block := words[i*e.BlockWords() : (i+1)*e.BlockWords()]
		phase := block[e.LWEDimension]
		for j, a := range block[:e.LWEDimension] {
			phase -= a * key[j]
		}
		digits[i] = ((phase + delta/2) / delta) % space
	}
	return e.Compose(digits), nil
}

// WordsToBytes serializes words little-endian.
func WordsToBytes(words []uint64) []byte {
	out := make([]byte, 8*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint64(out[8*i:], w)
	}
	return out
}

// BytesToWords deserializes little-endian words.
func BytesToWords(b []byte) []uint64 {
	out := make([]uint64, len(b)/8)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(b[8*i:])
	}
	return out
}

func isPowerOfTwo(v uint64) bool { return v != 0 && v&(v-1) == 0 }

func log2u64(v uint64) int { return bits.Len64(v) - 1 }
