package utils

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// PasswordPolicy describes the strength rules applied on registration,
// password change and password reset.
type PasswordPolicy struct {
	MinLength int
}

// commonPasswords is a short deny list of the passwords that top every
// breach corpus.
var commonPasswords = map[string]bool{
	"password": true, "password1": true, "password123": true, "passw0rd": true,
	"12345678": true, "123456789": true, "1234567890": true, "qwerty123": true,
	"qwertyuiop": true, "iloveyou": true, "sunshine": true, "princess": true,
	"football": true, "baseball": true, "welcome1": true, "letmein1": true,
	"admin123": true, "trustno1": true, "superman": true, "starwars": true,
	"abc12345": true, "11111111": true, "00000000": true, "monkey123": true,
}

// Check returns one message per violated rule, or nil when the password is
// acceptable.  attrs are user attributes (username, email) the password
// must not resemble.
func (p PasswordPolicy) Check(password string, attrs ...string) []string {
	var problems []string
	min := p.MinLength
	if min < 1 {
		min = 8
	}
	if len([]rune(password)) < min {
		problems = append(problems, fmt.Sprintf("This password is too short. It must contain at least %d characters.", min))
	}
	lower := strings.ToLower(password)
	if commonPasswords[lower] {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		problems = append(problems, "This password is entirely numeric.")
	}
	for _, a := range attrs {
		if similar(lower, a) {
			problems = append(problems, "The password is too similar to your account details.")
			break
		}
	}
	return problems
}

// similar reports whether the password contains the attribute (or the
// local part of an email) or the other way round.  Attributes shorter
// than three characters are ignored.
func similar(password, attr string) bool {
	attr = strings.ToLower(strings.TrimSpace(attr))
	if i := strings.IndexByte(attr, '@'); i > 0 {
		attr = attr[:i]
	}
	if len(attr) < 3 || password == "" {
		return false
	}
	return strings.Contains(password, attr) || strings.Contains(attr, password)
}
