package auth_test

import (
	"testing"

	"github.com/yasinhessnawi1/timeguard/internal/auth"
	"github.com/yasinhessnawi1/timeguard/internal/config"
)

func fastPasswordConfig() *auth.PasswordConfig {
	return &auth.PasswordConfig{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := fastPasswordConfig()

	hash, salt, err := auth.HashPassword("correct horse", cfg)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" || salt == "" {
		t.Fatal("Expected non-empty hash and salt")
	}

	ok, err := auth.VerifyPassword("correct horse", hash, salt, cfg)
	if err != nil || !ok {
		t.Errorf("Expected password to verify, ok=%v err=%v", ok, err)
	}

	ok, err = auth.VerifyPassword("wrong horse", hash, salt, cfg)
	if err != nil || ok {
		t.Errorf("Expected wrong password to fail, ok=%v err=%v", ok, err)
	}
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	cfg := fastPasswordConfig()

	h1, s1, _ := auth.HashPassword("same", cfg)
	h2, s2, _ := auth.HashPassword("same", cfg)

	if s1 == s2 {
		t.Error("Expected distinct salts")
	}
	if h1 == h2 {
		t.Error("Expected distinct hashes for distinct salts")
	}
}

func TestVerifyPassword_BadEncoding(t *testing.T) {
	cfg := fastPasswordConfig()

	if _, err := auth.VerifyPassword("x", "%%%", "AAAA", cfg); err == nil {
		t.Error("Expected error for undecodable hash")
	}
	if _, err := auth.VerifyPassword("x", "AAAA", "%%%", cfg); err == nil {
		t.Error("Expected error for undecodable salt")
	}
}

func TestConfigFromAppConfig(t *testing.T) {
	def := auth.DefaultPasswordConfig()

	got := auth.ConfigFromAppConfig(nil)
	if *got != *def {
		t.Errorf("Expected defaults for nil config, got %+v", got)
	}

	cfg := &config.AppConfig{}
	cfg.PasswordHash.Iterations = 7
	got = auth.ConfigFromAppConfig(cfg)
	if got.Iterations != 7 {
		t.Errorf("Expected Iterations 7, got %d", got.Iterations)
	}
	if got.Memory != def.Memory {
		t.Errorf("Expected default memory %d, got %d", def.Memory, got.Memory)
	}
}
