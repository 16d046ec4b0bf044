package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/clusterpulse/aiops-engine/internal/utils"
)

const testSecret = "unit-test-secret"

func TestDefaultUsersAuthenticate(t *testing.T) {
	users := NewDefaultUsers()

	cases := []struct {
		email string
		role  string
	}{
		{"admin@example.com", RoleAdmin},
		{"ops@example.com", RoleOperator},
		{"viewer@example.com", RoleViewer},
	}
	for _, tc := range cases {
		user, ok := users.Authenticate(tc.email, "admin123")
		if !ok {
			t.Fatalf("expected %s to authenticate", tc.email)
		}
		if user.Role != tc.role {
			t.Fatalf("expected role %s for %s, got %s", tc.role, tc.email, user.Role)
		}
	}

	if _, ok := users.Authenticate("admin@example.com", "wrong"); ok {
		t.Fatalf("wrong password must not authenticate")
	}
	if _, ok := users.Authenticate("nobody@example.com", "admin123"); ok {
		t.Fatalf("unknown user must not authenticate")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	users := NewDefaultUsers()
	user, _ := users.Lookup("ops@example.com")

	token, err := IssueToken(testSecret, user, time.Hour, utils.SystemClock)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Email != "ops@example.com" || claims.Role != RoleOperator {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	user := User{Email: "admin@example.com", Role: RoleAdmin}
	token, err := IssueToken(testSecret, user, time.Hour, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ValidateToken("other-secret", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenExpiryRejected(t *testing.T) {
	user := User{Email: "admin@example.com", Role: RoleAdmin}
	past := utils.FixedClock(time.Now().Add(-2 * time.Hour))
	token, err := IssueToken(testSecret, user, time.Hour, past)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ValidateToken(testSecret, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejection, got %v", err)
	}
}

func TestTokenGarbageRejected(t *testing.T) {
	if _, err := ValidateToken(testSecret, "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRoleAllowed(t *testing.T) {
	if !RoleAllowed(RoleAdmin, WriteRoles) || !RoleAllowed(RoleOperator, WriteRoles) {
		t.Fatalf("admin and operator must be write roles")
	}
	if RoleAllowed(RoleViewer, WriteRoles) {
		t.Fatalf("viewer must not be a write role")
	}
}
