package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

var now = time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, issued, err := GenerateToken("acc-123", "ana@example.com", secret, now, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if issued.ID == "" {
		t.Fatal("jti must be set")
	}

	claims, err := ParseToken(tok, secret, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.AccountID() != "acc-123" || claims.Email != "ana@example.com" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.ID != issued.ID {
		t.Fatalf("jti mismatch: got %q want %q", claims.ID, issued.ID)
	}
	if !claims.ExpiresAt.Time.Equal(now.Add(time.Hour)) {
		t.Fatalf("expiry mismatch: %v", claims.ExpiresAt)
	}
}

func TestGenerateToken_UniqueJTI(t *testing.T) {
	t.Parallel()

	_, a, _ := GenerateToken("acc", "a@example.com", []byte("k"), now, now.Add(time.Hour))
	_, b, _ := GenerateToken("acc", "a@example.com", []byte("k"), now, now.Add(time.Hour))
	if a.ID == b.ID {
		t.Fatal("two grants share a jti")
	}
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, _, err := GenerateToken("u1", "u1@example.com", secret, now, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = ParseToken(tok, secret, now.Add(2*time.Hour))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := GenerateToken("u2", "u2@example.com", []byte("right-secret"), now, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, err = ParseToken(tok, []byte("wrong-secret"), now); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "u3", ID: "j", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	if _, err := ParseToken(tok, []byte("k"), now); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected rejection of HS512, got %v", err)
	}
}

func TestParseToken_MalformedString(t *testing.T) {
	t.Parallel()

	if _, err := ParseToken("not.a.jwt", []byte("k"), now); err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
}
