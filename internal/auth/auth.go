package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/articles/internal/web"
	"github.com/siahsang/articles/models"
)

var (
	ErrInvalidToken = xerrors.Message("Invalid authentication token")
)

type Auth struct {
	secret []byte
}

func New(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// GenerateToken signs a token for username. Tokens are normally issued by
// the identity provider; this is used by tooling and tests.
func (auth *Auth) GenerateToken(username string, duration time.Duration) (string, error) {
	now := time.Now()
	claim := UserClaim{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claim)
	signedString, err := token.SignedString(auth.secret)
	if err != nil {
		return "", xerrors.New(err)
	}
	return signedString, nil
}

func (auth *Auth) Authenticate(tokenString string) (*UserClaim, error) {
	parsedToken, err := jwt.ParseWithClaims(tokenString, &UserClaim{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, xerrors.New("unexpected signing method")
		}
		return auth.secret, nil
	})
	if err != nil {
		return nil, xerrors.Newf("%w: %s", ErrInvalidToken, err.Error())
	}

	claim, ok := parsedToken.Claims.(*UserClaim)
	if !ok || !parsedToken.Valid || claim.Username == "" {
		return nil, xerrors.New(ErrInvalidToken)
	}

	return claim, nil
}

func IdentityOf(user *models.User) Identity {
	return Identity{
		UserID:   user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff,
	}
}

func (auth *Auth) SetIdentity(r *http.Request, identity Identity) *http.Request {
	return web.AddValueToContext(r, web.IdentityKey, identity)
}

// GetIdentity returns the identity stored on the request, or Anonymous.
func (auth *Auth) GetIdentity(r *http.Request) Identity {
	identity, ok := web.GetValueFromContext[Identity](r, web.IdentityKey)
	if !ok {
		return Anonymous()
	}
	return identity
}

func (auth *Auth) IsUserAuthenticated(r *http.Request) bool {
	return auth.GetIdentity(r).IsAuthenticated()
}
