package radix

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Encryptor produces key-encrypted radix ciphertexts for the simulator
// backend and the tests. Key and noise sampling are driven by a blake2b XOF
// seeded by the caller, so a fixed seed reproduces the same key.
//
// This is simulation-grade key material: it exercises the full
// encode → encrypt → execute → decrypt flow, not a hardened scheme.
type Encryptor struct {
	enc Encoding
	key []uint64
	xof blake2b.XOF
}

// NewEncryptor samples a fresh binary key for the encoding from seed.
func NewEncryptor(enc Encoding, seed []byte) (*Encryptor, error) {
	if err := enc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid encoding: %w", err)
	}
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, nil)
	if err != nil {
		return nil, fmt.Errorf("init sampler: %w", err)
	}
	if _, err := xof.Write(seed); err != nil {
		return nil, fmt.Errorf("seed sampler: %w", err)
	}

	e := &Encryptor{enc: enc, xof: xof}
	e.key = make([]uint64, enc.LWEDimension)
	for i := range e.key {
		e.key[i] = e.sampleUint64() & 1
	}
	return e, nil
}

// Encoding returns the encryptor's block layout.
func (e *Encryptor) Encoding() Encoding { return e.enc }

// Key returns the secret key. The simulator's evaluation key is derived from
// it; real backends never see it.
func (e *Encryptor) Key() []uint64 { return e.key }

// Encrypt encodes value into digit blocks and encrypts each block under the
// key with fresh mask and noise.
func (e *Encryptor) Encrypt(value uint64) (*Ciphertext, error) {
	if value > e.enc.MaxValue() {
		return nil, fmt.Errorf("value %d exceeds encoding capacity %d", value, e.enc.MaxValue())
	}
	ct := NewCiphertext(e.enc)
	delta := e.enc.delta()
	noiseBound := delta / 16
	for i, digit := range e.enc.Digits(value) {
		block := ct.words[i*e.enc.BlockWords() : (i+1)*e.enc.BlockWords()]
		var acc uint64
		for j := 0; j < e.enc.LWEDimension; j++ {
			block[j] = e.sampleUint64()
			acc += block[j] * e.key[j]
		}
		noise := e.sampleUint64()%noiseBound - noiseBound/2
		block[e.enc.LWEDimension] = acc + digit*delta + noise
	}
	return ct, nil
}

// Decrypt recovers the plaintext of ct under the encryptor's key.
func (e *Encryptor) Decrypt(ct *Ciphertext) (uint64, error) {
	if ct.enc != e.enc {
		return 0, fmt.Errorf("ciphertext encoding %+v does not match encryptor encoding %+v", ct.enc, e.enc)
	}
	return DecryptValue(e.enc, e.key, ct.words)
}

// EvaluationKey packs the key material into an opaque blob of the given byte
// size, the way a caller would stage a bootstrap or keyswitch key onto a
// device. size must cover the key words.
func (e *Encryptor) EvaluationKey(size int64) ([]byte, error) {
	keyBytes := WordsToBytes(e.key)
	if size < int64(len(keyBytes)) {
		return nil, fmt.Errorf("evaluation key size %d is below the key material size %d", size, len(keyBytes))
	}
	out := make([]byte, size)
	copy(out, keyBytes)
	return out, nil
}

// KeyFromEvaluationKey recovers the key words from an evaluation key blob.
func KeyFromEvaluationKey(enc Encoding, blob []byte) ([]uint64, error) {
	need := enc.LWEDimension * 8
	if len(blob) < need {
		return nil, fmt.Errorf("evaluation key blob %d bytes is below the key material size %d", len(blob), need)
	}
	return BytesToWords(blob[:need]), nil
}

func (e *Encryptor) sampleUint64() uint64 {
	var b [8]byte
	if _, err := e.xof.Read(b[:]); err != nil {
		// The XOF in unknown-length mode never runs out.
		panic(fmt.Sprintf("radix: sampler read failed: %v", err))
	}
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}
