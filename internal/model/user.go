package model

import "time"

// User represents an application user record as stored in the
// `users` table. Email is the identity key used for login; Username is
// a unique alphanumeric handle shown on reviews.
//
// Fields:
//
//	ID           – primary key identifier.
//	Email        – unique email address.
//	Username     – unique alphanumeric handle.
//	Name         – optional display name.
//	PasswordHash – bcrypt hashed password.
//	IsVerified   – set once the email verification link was opened.
//	IsActive     – whether the account may log in.
//	IsAdmin      – administrative account created from the CLI.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Username     string    // users.username
	Name         string    // users.name
	PasswordHash string    // users.password_hash
	IsVerified   bool      // users.is_verified
	IsActive     bool      // users.is_active
	IsAdmin      bool      // users.is_admin
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.  A row with RevokedAt set is blacklisted.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
