package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// TokenExpiry reads the exp claim of a JWT (access or refresh) without verifying it.
// The backend owns the signing key; the dashboard only needs the deadline.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// OAuth2Token presents the session as a bearer token. Expiry is left zero for
// opaque tokens, which oauth2 treats as never expiring.
func (s Session) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
	}
	if exp, ok := TokenExpiry(s.AccessToken); ok {
		tok.Expiry = exp
	}
	return tok
}
