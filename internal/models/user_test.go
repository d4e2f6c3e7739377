package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/timeguard/internal/models"
)

func TestUser_Sanitize(t *testing.T) {
	user := &models.User{
		ID:           1,
		Username:     "admin",
		PasswordHash: "hashed_password",
		Salt:         "salt_value",
		IsAdmin:      true,
		CreatedAt:    time.Now(),
	}

	sanitized := user.Sanitize()

	assert.Empty(t, sanitized.PasswordHash)
	assert.Empty(t, sanitized.Salt)
	assert.Equal(t, "admin", sanitized.Username)
	assert.True(t, sanitized.IsAdmin)
	assert.Equal(t, "hashed_password", user.PasswordHash, "Sanitize should not modify the original")
}

func TestUser_JSONHidesCredentials(t *testing.T) {
	data, err := json.Marshal(&models.User{Username: "alice", PasswordHash: "h", Salt: "s"})

	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
	assert.NotContains(t, string(data), "salt")
	assert.Contains(t, string(data), `"username":"alice"`)
}
