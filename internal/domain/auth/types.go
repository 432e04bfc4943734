package auth

import "time"

// Config drives token verification and development issuance.
type Config struct {
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

// Claims are extracted from the JWT token.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}
