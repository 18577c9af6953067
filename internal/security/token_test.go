package security

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer("test-secret", 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return issuer
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	if _, err := NewTokenIssuer("", time.Minute, time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.IssueAccessToken("user-1", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	claims, err := issuer.Verify(token, TokenTypeAccess)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Role != "USER" || claims.TokenType != TokenTypeAccess {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	issuer := newTestIssuer(t)

	refresh, err := issuer.IssueRefreshToken("user-1", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := issuer.Verify(refresh, TokenTypeAccess); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}
	if _, err := issuer.Verify(refresh, TokenTypeRefresh); err != nil {
		t.Fatalf("refresh as refresh: %v", err)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.IssueAccessToken("user-1", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := issuer.Verify(tampered, TokenTypeAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := newTestIssuer(t)
	other, err := NewTokenIssuer("other-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	token, err := issuer.IssueAccessToken("user-1", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := other.Verify(token, TokenTypeAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyReportsExpiryDistinctly(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Nanosecond, time.Nanosecond)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	token, err := issuer.IssueAccessToken("user-1", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := issuer.Verify(token, TokenTypeAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatalf("digest not deterministic")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatalf("distinct tokens share a digest")
	}
	if len(HashToken("abc")) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(HashToken("abc")))
	}
}

// Refresh tokens carry a nonce, so repeated issuance in a tight loop must
// never produce colliding ledger digests.
func TestRefreshTokenDigestsUnique(t *testing.T) {
	issuer := newTestIssuer(t)

	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		token, err := issuer.IssueRefreshToken("user-1", "USER")
		if err != nil {
			t.Fatalf("issue %d: %v", i, err)
		}
		digest := HashToken(token)
		if _, dup := seen[digest]; dup {
			t.Fatalf("digest collision at iteration %d", i)
		}
		seen[digest] = struct{}{}
	}
}
