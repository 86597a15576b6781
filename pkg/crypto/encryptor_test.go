package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mailPayload struct {
	To   string            `json:"to"`
	Vars map[string]string `json:"vars"`
}

func TestNewEncryptor(t *testing.T) {
	t.Run("generates identity when key is empty", func(t *testing.T) {
		enc, err := NewEncryptor("")
		require.NoError(t, err)
		assert.NotNil(t, enc.identity)
		assert.True(t, len(enc.Recipient()) > 4)
		assert.Equal(t, "age1", enc.Recipient()[:4])
	})

	t.Run("parses generated key", func(t *testing.T) {
		key, err := GenerateKey()
		require.NoError(t, err)

		enc, err := NewEncryptor(key)
		require.NoError(t, err)
		assert.NotNil(t, enc)
	})

	t.Run("rejects invalid key", func(t *testing.T) {
		_, err := NewEncryptor("invalid-key-format")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing identity")
	})
}

func TestGenerateKey_Unique(t *testing.T) {
	k1, err := GenerateKey()
	require.NoError(t, err)
	k2, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestEncryptDecrypt(t *testing.T) {
	enc, err := NewEncryptor("")
	require.NoError(t, err)

	plaintext := []byte("https://app.example.com/verify/email?token=at_abc.def")

	c1, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	c2, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2, "each encryption uses a fresh file key")

	got, err := enc.Decrypt(c1)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestDecrypt_Failures(t *testing.T) {
	enc1, err := NewEncryptor("")
	require.NoError(t, err)
	enc2, err := NewEncryptor("")
	require.NoError(t, err)

	_, err = enc1.Decrypt([]byte("not valid ciphertext"))
	assert.Error(t, err)

	sealed, err := enc1.Encrypt([]byte("secret"))
	require.NoError(t, err)
	_, err = enc2.Decrypt(sealed)
	assert.Error(t, err, "wrong identity must not decrypt")
}

func TestSealOpen(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	producer, err := NewEncryptor(key)
	require.NoError(t, err)
	consumer, err := NewEncryptor(key)
	require.NoError(t, err)

	in := mailPayload{To: "a@example.com", Vars: map[string]string{"link": "https://x/y"}}
	sealed, err := producer.Seal(in)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "a@example.com")

	var out mailPayload
	require.NoError(t, consumer.Open(sealed, &out))
	assert.Equal(t, in, out)
}

func TestRandomBytes(t *testing.T) {
	a, err := RandomBytes(42)
	require.NoError(t, err)
	b, err := RandomBytes(42)
	require.NoError(t, err)

	assert.Len(t, a, 42)
	assert.NotEqual(t, a, b)
}
