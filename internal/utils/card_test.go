package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCardNumber(t *testing.T) {
	for i := 0; i < 50; i++ {
		number, err := GenerateCardNumber()
		require.NoError(t, err)
		assert.Len(t, number, 19)
		assert.True(t, ValidCardNumber(number), "bad number %q", number)
	}
}

func TestValidCardNumber(t *testing.T) {
	assert.True(t, ValidCardNumber("1234-5678-9012-3456"))
	assert.False(t, ValidCardNumber("1234567890123456"))
	assert.False(t, ValidCardNumber("1234-5678-9012-345"))
	assert.False(t, ValidCardNumber("1234-5678-9012-345a"))
	assert.False(t, ValidCardNumber("1234-5678-9012-3456-7890"))
}

func TestGenerateExpiryDate(t *testing.T) {
	now := time.Date(2026, time.March, 15, 13, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2029, time.March, 15, 0, 0, 0, 0, time.UTC), GenerateExpiryDate(now))
}

func TestGenerateHMAC(t *testing.T) {
	a := GenerateHMAC("1234-5678-9012-3456", "secret")
	b := GenerateHMAC("1234-5678-9012-3456", "secret")
	c := GenerateHMAC("1234-5678-9012-3456", "other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestEncryptDecrypt(t *testing.T) {
	key, err := ParseKey("a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6")
	require.NoError(t, err)

	encrypted, err := Encrypt("1234-5678-9012-3456", key)
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "1234")

	plain, err := Decrypt(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, "1234-5678-9012-3456", plain)
}

func TestEncryptErrors(t *testing.T) {
	_, err := Encrypt("", make([]byte, 32))
	assert.Error(t, err)

	_, err = Encrypt("data", make([]byte, 7))
	assert.Error(t, err)

	_, err = Decrypt("zz", make([]byte, 32))
	assert.Error(t, err)

	_, err = ParseKey("abcd")
	assert.Error(t, err)
}
