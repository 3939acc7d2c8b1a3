package password

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSalt(t *testing.T) {
	salt := GenerateSalt()

	assert.Len(t, salt, 2*SaltSize)
	_, err := hex.DecodeString(salt)
	require.NoError(t, err)

	assert.NotEqual(t, salt, GenerateSalt(), "две соли не должны совпадать")
}

func TestGenerateHash_Deterministic(t *testing.T) {
	tests := []struct {
		name     string
		password string
		salt     string
	}{
		{"simple", "secret1", "abcdef"},
		{"empty password", "", "abcdef"},
		{"unicode", "пароль123", GenerateSalt()},
		{"random salt", "secret1", GenerateSalt()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := GenerateHash(tt.password, tt.salt)
			for i := 0; i < 3; i++ {
				assert.Equal(t, first, GenerateHash(tt.password, tt.salt))
			}
			assert.Len(t, first, 64)
		})
	}
}

func TestGenerateHash_KnownVector(t *testing.T) {
	// RFC 4231, test case 2
	assert.Equal(t,
		"5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843",
		GenerateHash("what do ya want for nothing?", "Jefe"))
}

func TestGenerateHash_SaltMatters(t *testing.T) {
	assert.NotEqual(t, GenerateHash("secret1", "salt-a"), GenerateHash("secret1", "salt-b"))
	assert.NotEqual(t, GenerateHash("secret1", "salt-a"), GenerateHash("secret2", "salt-a"))
}

func TestCompare(t *testing.T) {
	salt := GenerateSalt()
	hash := GenerateHash("secret1", salt)

	assert.True(t, Compare("secret1", salt, hash))
	assert.False(t, Compare("secret2", salt, hash))
	assert.False(t, Compare("secret1", GenerateSalt(), hash))
	assert.False(t, Compare("secret1", salt, ""))
}
