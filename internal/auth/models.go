package auth

import "github.com/golang-jwt/jwt/v5"

// Identity is the acting party of a request. The zero value is anonymous.
type Identity struct {
	UserID   int64
	Username string
	IsStaff  bool
}

func Anonymous() Identity {
	return Identity{}
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != 0
}

type UserClaim struct {
	Username string `json:"username"`

	jwt.RegisteredClaims
}
