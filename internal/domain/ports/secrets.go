package ports

import "context"

// CredentialCipher encrypts and decrypts provider secrets at rest.
// The pipeline only ever calls Decrypt; encryption happens in the admin
// tooling that writes gateway configs.
type CredentialCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SecretSource retrieves named secrets (the cipher's master key, seed
// credentials) from a secret management backend
type SecretSource interface {
	GetSecret(ctx context.Context, path string) (string, error)
}
