package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/escapeeng/admin-gateway/internal/model"
)

const testSecret = "test-secret"

func testUser() model.AdminUser {
	return model.AdminUser{
		ID:    7,
		Email: "admin@example.com",
		Name:  "Admin User",
		Role:  model.RoleAdmin,
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issued, err := Issue(testSecret, testUser(), 24*time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.Session.SessionID == "" {
		t.Fatal("issued session has empty session_id")
	}
	if !issued.Session.ExpiresAt.After(issued.Session.IssuedAt) {
		t.Fatal("expires_at not after issued_at")
	}

	claims, err := VerifyToken(testSecret, issued.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 7 {
		t.Errorf("user id = %d, want 7", claims.UserID)
	}
	if claims.Email != "admin@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", claims.Role)
	}
	if claims.SessionID != issued.Session.SessionID {
		t.Errorf("session id mismatch: %q vs %q", claims.SessionID, issued.Session.SessionID)
	}
}

func TestIssueFreshSessionIDPerCall(t *testing.T) {
	a, err := Issue(testSecret, testUser(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	b, err := Issue(testSecret, testUser(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if a.Session.SessionID == b.Session.SessionID {
		t.Fatal("two logins produced the same session_id")
	}
}

func TestVerifyTokenFailureBranches(t *testing.T) {
	valid, err := Issue(testSecret, testUser(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	foreign, err := Issue("some-other-secret", testUser(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	expired, err := Issue(testSecret, testUser(), -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"missing token", "", ErrUnauthenticated},
		{"garbage", "not.a.jwt", ErrInvalidToken},
		{"wrong secret", foreign.Token, ErrInvalidToken},
		{"tampered", valid.Token + "x", ErrInvalidToken},
		{"expired", expired.Token, ErrExpired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VerifyToken(testSecret, tc.raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("VerifyToken() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestVerifyTokenRejectsMalformedShape(t *testing.T) {
	// Correctly signed tokens that lack our claim shape must be
	// rejected, not half-trusted.
	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"no session id", jwt.MapClaims{
			"uid": 7, "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
		}},
		{"no user id", jwt.MapClaims{
			"sid": "s-1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
		}},
		{"unknown role", jwt.MapClaims{
			"uid": 7, "sid": "s-1", "role": "superuser", "exp": time.Now().Add(time.Hour).Unix(),
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok := jwt.NewWithClaims(jwt.SigningMethodHS256, tc.claims)
			signed, err := tok.SignedString([]byte(testSecret))
			if err != nil {
				t.Fatalf("sign: %v", err)
			}
			if _, err := VerifyToken(testSecret, signed); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("VerifyToken() error = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestVerifyTokenRejectsNonHMAC(t *testing.T) {
	// alg=none style downgrades must not verify.
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"uid": 7, "sid": "s-1", "role": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyToken(testSecret, signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyToken() error = %v, want %v", err, ErrInvalidToken)
	}
}
