package users

import (
	"fmt"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Role spellings as the console backend sends them.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleAgent    = "agent"
	RoleCustomer = "customer"
)

type User struct {
	ID           string    `json:"id,omitempty"`
	Username     string    `json:"username,omitempty"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"displayName,omitempty"`
	Role         string    `json:"role,omitempty"`
	CustomerID   string    `json:"customerId,omitempty"` // customers only
	BoutiqueID   string    `json:"boutiqueId,omitempty"` // shop managers and agents
	Blocked      bool      `json:"blocked,omitempty"`
	LoggedIn     bool      `json:"loggedIn,omitempty"`
	LastLogin    time.Time `json:"lastLogin,omitempty"`
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// New builds a user with a hashed password. The password must pass
// ValidatePasswordStrength.
func New(username, password, displayName, role string) (*User, error) {
	if username == "" {
		return nil, fmt.Errorf("[users New] username is required")
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, fmt.Errorf("[users New] %w", err)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("[users New] failed to hash password: %w", err)
	}
	return &User{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         role,
	}, nil
}

func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}
