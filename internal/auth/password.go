package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/yasinhessnawi1/timeguard/internal/config"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
)

// PasswordConfig holds the Argon2id parameters used for user passwords.
type PasswordConfig struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultPasswordConfig returns the default configuration for password hashing
func DefaultPasswordConfig() *PasswordConfig {
	return &PasswordConfig{
		Memory:      constants.DefaultPasswordHashMemory,
		Iterations:  constants.DefaultPasswordHashIterations,
		Parallelism: constants.DefaultPasswordHashParallelism,
		SaltLength:  constants.DefaultPasswordHashSaltLength,
		KeyLength:   constants.DefaultPasswordHashKeyLength,
	}
}

// ConfigFromAppConfig builds a PasswordConfig from the hash section of the
// application config, falling back to defaults for zero values.
func ConfigFromAppConfig(cfg *config.AppConfig) *PasswordConfig {
	pc := DefaultPasswordConfig()
	if cfg == nil {
		return pc
	}
	if cfg.PasswordHash.Memory > 0 {
		pc.Memory = cfg.PasswordHash.Memory
	}
	if cfg.PasswordHash.Iterations > 0 {
		pc.Iterations = cfg.PasswordHash.Iterations
	}
	if cfg.PasswordHash.Parallelism > 0 {
		pc.Parallelism = cfg.PasswordHash.Parallelism
	}
	if cfg.PasswordHash.SaltLength > 0 {
		pc.SaltLength = cfg.PasswordHash.SaltLength
	}
	if cfg.PasswordHash.KeyLength > 0 {
		pc.KeyLength = cfg.PasswordHash.KeyLength
	}
	return pc
}

func (c *PasswordConfig) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, c.Iterations, c.Memory, c.Parallelism, c.KeyLength)
}

// HashPassword hashes password with a fresh random salt.
// It returns the base64 hash and base64 salt to be stored side by side.
func HashPassword(password string, cfg *PasswordConfig) (string, string, error) {
	salt := make([]byte, cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := cfg.derive(password, salt)
	return base64.StdEncoding.EncodeToString(hash), base64.StdEncoding.EncodeToString(salt), nil
}

// VerifyPassword reports whether password matches the stored hash and salt.
func VerifyPassword(password, encodedHash, encodedSalt string, cfg *PasswordConfig) (bool, error) {
	hash, err := base64.StdEncoding.DecodeString(encodedHash)
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(encodedSalt)
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	// constant time
	return subtle.ConstantTimeCompare(hash, cfg.derive(password, salt)) == 1, nil
}
