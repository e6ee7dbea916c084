// Package crypto implements authenticated encryption for the record store:
// AES-256-GCM with a caller-supplied context string bound in as additional
// authenticated data. The envelope layout is bit-exact and stable:
//
//	byte[ 0..12)   nonce       (12 bytes, random)
//	byte[12..N-16) ciphertext  (N-28 bytes, same length as plaintext)
//	byte[N-16..N)  tag         (16 bytes, AES-GCM authentication tag)
//
// Total length N = len(plaintext) + 28. AAD = UTF-8 bytes of the context
// string. Two encryptions of the same plaintext under the same context
// produce distinct envelopes, since the nonce is drawn fresh from a
// cryptographically secure RNG on every call.
package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"golang.org/x/crypto/argon2"

	cabinetErrors "github.com/cabinetdb/cabinet/pkg/errors"
)

const (
	// KeySize is the required master key length in bytes (AES-256).
	KeySize = 32

	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12

	// TagSize is the GCM authentication tag length in bytes.
	TagSize = 16

	// EnvelopeOverhead is the number of bytes an envelope adds beyond the
	// plaintext length (nonce + tag).
	EnvelopeOverhead = NonceSize + TagSize
)

// Provider performs authenticated encryption and decryption under a single
// 32-byte master key. It owns the key bytes exclusively; callers must not
// retain a copy they intend to mutate independently.
type Provider struct {
	key []byte
	gcm cipher.AEAD
}

// NewProvider constructs a Provider from exactly 32 raw key bytes. A key of
// any other length fails construction with an invalid-key error, per spec.
func NewProvider(key []byte) (*Provider, error) {
	if len(key) != KeySize {
		return nil, cabinetErrors.NewValidationError(
			nil, cabinetErrors.ErrorCodeInvalidInput, "master key must be exactly 32 bytes",
		).WithField("key").WithRule("length").WithProvided(len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, cabinetErrors.NewCryptoError(err, cabinetErrors.ErrorCodeInvalidInput, "failed to initialize AES cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, cabinetErrors.NewCryptoError(err, cabinetErrors.ErrorCodeInvalidInput, "failed to initialize GCM mode")
	}

	owned := make([]byte, KeySize)
	copy(owned, key)
	return &Provider{key: owned, gcm: gcm}, nil
}

// DeriveKey derives a 32-byte master key from a passphrase and salt using
// Argon2id. Callers that want a Provider directly should use
// NewProviderFromPassphrase; DeriveKey is exposed separately for callers
// (such as cmd/cabinetctl) that need the raw key bytes themselves, e.g. to
// pass to cabinet.Open alongside other construction parameters.
func DeriveKey(passphrase string, salt []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, cabinetErrors.NewRequiredFieldError("passphrase")
	}
	if len(salt) == 0 {
		return nil, cabinetErrors.NewRequiredFieldError("salt")
	}
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, KeySize), nil
}

// NewProviderFromPassphrase derives a 32-byte master key from a passphrase
// and salt using Argon2id, then constructs a Provider from it. This is a
// convenience layered on top of NewProvider for callers without their own
// key-management story; NewProvider with a directly-supplied key remains the
// primary construction path.
func NewProviderFromPassphrase(passphrase string, salt []byte) (*Provider, error) {
	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer SecureZero(key)
	return NewProvider(key)
}

// Close wipes the provider's copy of the master key. The Provider must not
// be used after Close.
func (p *Provider) Close() {
	SecureZero(p.key)
}

// Encrypt seals plaintext under the given AAD context, returning a fresh
// envelope on every call. Cancelling ctx before the seal completes returns
// errors.ErrCancelled without producing a partial envelope.
func (p *Provider) Encrypt(ctx context.Context, plaintext []byte, context_ string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, cabinetErrors.ErrCancelled
	default:
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, cabinetErrors.NewCryptoError(err, cabinetErrors.ErrorCodeInternal, "failed to generate nonce").WithContext(context_)
	}

	select {
	case <-ctx.Done():
		return nil, cabinetErrors.ErrCancelled
	default:
	}

	envelope := p.gcm.Seal(nonce, nonce, plaintext, []byte(context_))
	return envelope, nil
}

// Decrypt opens an envelope produced by Encrypt under the same AAD context.
// Any authentication failure - wrong key, wrong context, corruption,
// truncation - is surfaced as a *errors.CryptoError with
// ErrorCodeAuthentication; callers must not retry with a different context.
func (p *Provider) Decrypt(ctx context.Context, envelope []byte, context_ string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, cabinetErrors.ErrCancelled
	default:
	}

	if len(envelope) < NonceSize {
		return nil, cabinetErrors.NewCryptoError(nil, cabinetErrors.ErrorCodeAuthentication, "envelope shorter than nonce").WithContext(context_)
	}

	nonce, sealed := envelope[:NonceSize], envelope[NonceSize:]
	plaintext, err := p.gcm.Open(nil, nonce, sealed, []byte(context_))
	if err != nil {
		return nil, cabinetErrors.NewCryptoError(err, cabinetErrors.ErrorCodeAuthentication, "authentication failed").WithContext(context_)
	}

	return plaintext, nil
}

// SecureZero overwrites b with zeroes in place. Used to wipe key material
// and passphrases as soon as they are no longer needed.
func SecureZero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
