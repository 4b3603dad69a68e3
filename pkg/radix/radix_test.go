package radix

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testEncoding() Encoding {
	return Encoding{
		LWEDimension:   64,
		MessageModulus: 4,
		CarryModulus:   4,
		Blocks:         4,
	}
}

func TestEncodingValidate(t *testing.T) {
	require.NoError(t, testEncoding().Validate())

	bad := testEncoding()
	bad.MessageModulus = 3
	require.Error(t, bad.Validate())

	bad = testEncoding()
	bad.Blocks = 0
	require.Error(t, bad.Validate())

	bad = testEncoding()
	bad.LWEDimension = -1
	require.Error(t, bad.Validate())

	bad = testEncoding()
	bad.Blocks = 40 // 80 bits of message
	require.Error(t, bad.Validate())
}

func TestEncodingLayout(t *testing.T) {
	enc := testEncoding()
	require.Equal(t, 65, enc.BlockWords())
	require.Equal(t, 4*65, enc.Words())
	require.Equal(t, int64(4*65*8), enc.Bytes())
	require.Equal(t, 8, enc.MessageBits())
	require.Equal(t, uint64(255), enc.MaxValue())
}

func TestDigitsCompose(t *testing.T) {
	enc := testEncoding()
	for _, v := range []uint64{0, 1, 7, 200, 255} {
		digits := enc.Digits(v)
		require.Len(t, digits, enc.Blocks)
		require.Equal(t, v, enc.Compose(digits), "value %d", v)
	}

	require.Equal(t, []uint64{0, 2, 0, 3}, enc.Digits(200)) // 200 = 3*64 + 0*16 + 2*4 + 0
}

func TestTrivialRoundTrip(t *testing.T) {
	enc := testEncoding()
	key := make([]uint64, enc.LWEDimension) // zero key decrypts trivial blocks

	for _, v := range []uint64{0, 1, 28, 200, 255} {
		ct := enc.EncodeTrivial(v)
		got, err := DecryptValue(enc, key, ct.WordsRaw())
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc := testEncoding()
	e, err := NewEncryptor(enc, []byte("roundtrip seed"))
	require.NoError(t, err)

	for _, v := range []uint64{0, 1, 7, 28, 200, 255} {
		ct, err := e.Encrypt(v)
		require.NoError(t, err)
		got, err := e.Decrypt(ct)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}

	_, err = e.Encrypt(256)
	require.Error(t, err)
}

func TestEncryptorDeterministicFromSeed(t *testing.T) {
	enc := testEncoding()
	e1, err := NewEncryptor(enc, []byte("same seed"))
	require.NoError(t, err)
	e2, err := NewEncryptor(enc, []byte("same seed"))
	require.NoError(t, err)
	require.Equal(t, e1.Key(), e2.Key())

	e3, err := NewEncryptor(enc, []byte("other seed"))
	require.NoError(t, err)
	require.NotEqual(t, e1.Key(), e3.Key())
}

func TestCrossKeyDecryptGarbles(t *testing.T) {
	enc := testEncoding()
	e1, _ := NewEncryptor(enc, []byte("key one"))
	e2, _ := NewEncryptor(enc, []byte("key two"))

	matches := 0
	for _, v := range []uint64{200, 123, 77} {
		ct, err := e1.Encrypt(v)
		require.NoError(t, err)
		got, err := DecryptValue(enc, e2.Key(), ct.WordsRaw())
		require.NoError(t, err)
		if got == v {
			matches++
		}
	}
	require.Less(t, matches, 3, "foreign key must not decrypt every ciphertext")
}

func TestBytesRoundTrip(t *testing.T) {
	enc := testEncoding()
	e, _ := NewEncryptor(enc, []byte("bytes seed"))
	ct, err := e.Encrypt(123)
	require.NoError(t, err)

	b := ct.Bytes()
	require.Equal(t, enc.Bytes(), int64(len(b)))

	back, err := CiphertextFromBytes(enc, b)
	require.NoError(t, err)
	got, err := e.Decrypt(back)
	require.NoError(t, err)
	require.Equal(t, uint64(123), got)

	_, err = CiphertextFromBytes(enc, b[:8])
	require.Error(t, err)
}

func TestEvaluationKeyRoundTrip(t *testing.T) {
	enc := testEncoding()
	e, _ := NewEncryptor(enc, []byte("eval key seed"))

	blob, err := e.EvaluationKey(4096)
	require.NoError(t, err)
	require.Len(t, blob, 4096)

	key, err := KeyFromEvaluationKey(enc, blob)
	require.NoError(t, err)
	require.Equal(t, e.Key(), key)

	_, err = e.EvaluationKey(8)
	require.Error(t, err)
	_, err = KeyFromEvaluationKey(enc, blob[:8])
	require.Error(t, err)
}
