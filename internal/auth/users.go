package auth

import "golang.org/x/crypto/bcrypt"

// Roles understood by the API. Write paths require admin or operator;
// admin-only paths gate on RoleAdmin alone.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// WriteRoles lists the roles allowed to mutate alert and scenario state.
var WriteRoles = []string{RoleAdmin, RoleOperator}

// User is one entry of the fixed in-memory user set.
type User struct {
	Email        string
	Role         string
	PasswordHash []byte
}

// Users holds the process-lifetime user set. There is no persistence tier,
// so the set is seeded at construction.
type Users struct {
	byEmail map[string]User
}

// NewDefaultUsers seeds the built-in admin/operator/viewer accounts. All
// three share the development password "admin123".
func NewDefaultUsers() *Users {
	users := &Users{byEmail: make(map[string]User, 3)}
	for _, entry := range []struct{ email, role string }{
		{"admin@example.com", RoleAdmin},
		{"ops@example.com", RoleOperator},
		{"viewer@example.com", RoleViewer},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			// bcrypt only fails on invalid cost; the default cost is valid.
			panic(err)
		}
		users.byEmail[entry.email] = User{Email: entry.email, Role: entry.role, PasswordHash: hash}
	}
	return users
}

// Lookup returns the user for the email, if present.
func (u *Users) Lookup(email string) (User, bool) {
	user, ok := u.byEmail[email]
	return user, ok
}

// Authenticate verifies an email/password pair against the user set.
func (u *Users) Authenticate(email, password string) (User, bool) {
	user, ok := u.byEmail[email]
	if !ok {
		return User{}, false
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return User{}, false
	}
	return user, true
}

// RoleAllowed reports whether role is one of the allowed roles.
func RoleAllowed(role string, allowed []string) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}
