package auth_test

import (
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"taskboard/internal/auth"
)

func TestGenerateAndParseToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-key")
	os.Setenv("JWT_EXPIRY_HOURS", "24")

	userID := "test-user-id"
	token, err := auth.GenerateToken(userID)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	parsedUserID, err := auth.ParseToken(token)
	assert.NoError(t, err)
	assert.Equal(t, userID, parsedUserID)
}

func TestParseToken_InvalidToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-key")

	_, err := auth.ParseToken("invalid-token")
	assert.Error(t, err)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_ExpiredToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-key")

	claims := jwt.MapClaims{
		"user_id": "test-user-id",
		"exp":     time.Now().Add(-1 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	expiredToken, _ := token.SignedString([]byte("test-secret-key"))

	_, err := auth.ParseToken(expiredToken)
	assert.Error(t, err)
}

func TestParseTokenWithSecret_WrongSecret(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-key")

	token, err := auth.GenerateToken("test-user-id")
	assert.NoError(t, err)

	_, err = auth.ParseTokenWithSecret(token, "another-secret")
	assert.Error(t, err)
}

func TestGenerateTokenWithSecret_MatchesConfiguredSecret(t *testing.T) {
	// Signing must not depend on the environment: a token minted with
	// the configured secret verifies against that same secret.
	os.Unsetenv("JWT_SECRET")

	token, err := auth.GenerateTokenWithSecret("test-user-id", "supersecretkey")
	assert.NoError(t, err)

	userID, err := auth.ParseTokenWithSecret(token, "supersecretkey")
	assert.NoError(t, err)
	assert.Equal(t, "test-user-id", userID)
}
