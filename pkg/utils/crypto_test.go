package utils

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{
			name:     "normal password hashes successfully",
			password: "hunter2-but-longer",
		},
		{
			name:     "empty password hashes successfully",
			password: "",
		},
		{
			name:     "unicode password hashes successfully",
			password: "pässwörd-日本語",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if err != nil {
				t.Fatalf("HashPassword() error = %v", err)
			}
			if !strings.HasPrefix(hash, "$2") {
				t.Fatalf("expected a bcrypt hash, got %q", hash)
			}
			if hash == tt.password {
				t.Fatal("hash must not equal the plaintext")
			}
		})
	}
}

func TestHashPasswordRejectsOverlongInput(t *testing.T) {
	// bcrypt caps input at 72 bytes.
	if _, err := HashPassword(strings.Repeat("x", 100)); err == nil {
		t.Fatal("expected an error for input past the bcrypt length limit")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("failed to hash password for test: %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{
			name:     "matching password verifies",
			password: "correct horse battery staple",
			hash:     hash,
			want:     true,
		},
		{
			name:     "wrong password fails",
			password: "incorrect horse",
			hash:     hash,
			want:     false,
		},
		{
			name:     "garbage hash fails",
			password: "correct horse battery staple",
			hash:     "not-a-bcrypt-hash",
			want:     false,
		},
		{
			name:     "empty hash fails",
			password: "correct horse battery staple",
			hash:     "",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	second, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if first == second {
		t.Fatal("expected distinct hashes for the same password")
	}
	if !CheckPassword("same password", first) || !CheckPassword("same password", second) {
		t.Fatal("expected both salted hashes to verify")
	}
}
