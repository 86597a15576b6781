package crypto

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"

	"filippo.io/age"
)

// Encryptor seals queue payloads with an age X25519 identity. The server and
// the worker must share the same ENCRYPTION_KEY.
type Encryptor struct {
	identity  *age.X25519Identity
	recipient age.Recipient
}

// NewEncryptor parses an age identity ("AGE-SECRET-KEY-1..."). An empty key
// yields a fresh throwaway identity, which only works when producer and
// consumer share the process.
func NewEncryptor(identityKey string) (*Encryptor, error) {
	var (
		identity *age.X25519Identity
		err      error
	)

	if identityKey == "" {
		identity, err = age.GenerateX25519Identity()
		if err != nil {
			return nil, fmt.Errorf("generating identity: %w", err)
		}
	} else {
		identity, err = age.ParseX25519Identity(identityKey)
		if err != nil {
			return nil, fmt.Errorf("parsing identity: %w", err)
		}
	}

	return &Encryptor{
		identity:  identity,
		recipient: identity.Recipient(),
	}, nil
}

// GenerateKey returns a new identity string suitable for ENCRYPTION_KEY.
func GenerateKey() (string, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", fmt.Errorf("generating identity: %w", err)
	}
	return identity.String(), nil
}

func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := age.Encrypt(&buf, e.recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing encryptor: %w", err)
	}

	return buf.Bytes(), nil
}

func (e *Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(ciphertext), e.identity)
	if err != nil {
		return nil, fmt.Errorf("creating decryptor: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading plaintext: %w", err)
	}
	return plaintext, nil
}

// Seal JSON-encodes v and encrypts the result.
func (e *Encryptor) Seal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal sealed value: %w", err)
	}
	return e.Encrypt(data)
}

// Open decrypts a value produced by Seal into v.
func (e *Encryptor) Open(sealed []byte, v any) error {
	data, err := e.Decrypt(sealed)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal sealed value: %w", err)
	}
	return nil
}

// Recipient returns the public half of the identity ("age1...").
func (e *Encryptor) Recipient() string {
	return e.recipient.(*age.X25519Recipient).String()
}

// RandomBytes reads n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating random bytes: %w", err)
	}
	return b, nil
}
