package auth

import (
	"errors"
	"testing"
	"time"

	"ridehail/internal/domain"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "ridehail", time.Hour)

	token, expires, err := m.GenerateToken("user-1", domain.RoleDriver)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Error("expiry should be in the future")
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != domain.RoleDriver {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestJWTManager_Rejections(t *testing.T) {
	m := NewJWTManager("secret", "ridehail", time.Hour)
	token, _, err := m.GenerateToken("user-1", domain.RoleRider)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		manager *JWTManager
		token   string
		want    error
	}{
		{"wrong secret", NewJWTManager("other", "ridehail", time.Hour), token, ErrInvalidToken},
		{"wrong issuer", NewJWTManager("secret", "someone-else", time.Hour), token, ErrInvalidToken},
		{"garbage", m, "not-a-token", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.manager.ValidateToken(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("secret", "ridehail", -time.Minute)
	token, _, err := m.GenerateToken("user-1", domain.RoleRider)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ValidateToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the password")
	}
	if err := CheckPassword(hash, "s3cret-pass"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}
