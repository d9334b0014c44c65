package secrets

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAESCipher_EmptyMasterKey(t *testing.T) {
	_, err := NewAESCipher("")
	assert.Error(t, err)
}

func TestAESCipher_RoundTrip(t *testing.T) {
	c, err := NewAESCipher("master-key-material")
	require.NoError(t, err)

	sealed, err := c.Encrypt("prv_test_secret")
	require.NoError(t, err)
	assert.NotEqual(t, "prv_test_secret", sealed)

	plain, err := c.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "prv_test_secret", plain)
}

func TestAESCipher_NoncePerCall(t *testing.T) {
	c, err := NewAESCipher("master-key-material")
	require.NoError(t, err)

	first, err := c.Encrypt("same-plaintext")
	require.NoError(t, err)
	second, err := c.Encrypt("same-plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestAESCipher_WrongKey(t *testing.T) {
	enc, err := NewAESCipher("key-one")
	require.NoError(t, err)
	dec, err := NewAESCipher("key-two")
	require.NoError(t, err)

	sealed, err := enc.Encrypt("prv_test_secret")
	require.NoError(t, err)

	_, err = dec.Decrypt(sealed)
	assert.Error(t, err)
}

func TestAESCipher_TamperedCiphertext(t *testing.T) {
	c, err := NewAESCipher("master-key-material")
	require.NoError(t, err)

	sealed, err := c.Encrypt("prv_test_secret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString(raw))
	assert.Error(t, err)
}

func TestAESCipher_BadBase64(t *testing.T) {
	c, err := NewAESCipher("master-key-material")
	require.NoError(t, err)

	_, err = c.Decrypt("not base64!!")
	assert.Error(t, err)
}

func TestAESCipher_CiphertextShorterThanNonce(t *testing.T) {
	c, err := NewAESCipher("master-key-material")
	require.NoError(t, err)

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString([]byte{0x01, 0x02}))
	assert.Error(t, err)
}
