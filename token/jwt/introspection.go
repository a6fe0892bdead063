package jwt

import (
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/pgportal/internal/errors"
)

// RevokedChecker is an interface for checking if a token has been revoked
type RevokedChecker interface {
	IsRevoked(jti string) bool
}

// Inspector validates access tokens issued by a Creator with the same secret.
type Inspector struct {
	secret  []byte
	issuer  string
	revoked RevokedChecker
}

func NewInspector(secret, issuer string, revoked RevokedChecker) *Inspector {
	return &Inspector{
		secret:  []byte(secret),
		issuer:  issuer,
		revoked: revoked,
	}
}

// Introspect verifies rawToken and returns its claims. Expired, revoked and
// foreign-scope tokens are rejected with errors.ErrInvalidToken.
func (i *Inspector) Introspect(rawToken string, scope Scope) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwtlib.ParseWithClaims(rawToken, claims, func(*jwtlib.Token) (any, error) {
		return i.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(i.issuer),
		jwtlib.WithTimeFunc(NowTimeFunc),
	)
	if err != nil || !token.Valid {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "%v", err)
	}

	if claims.Scope != scope {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "token scope %q, want %q", claims.Scope, scope)
	}
	if claims.ID != "" && i.revoked != nil && i.revoked.IsRevoked(claims.ID) {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "token revoked")
	}
	return claims, nil
}
