package engine

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// StaticTokenSource wraps a fixed bearer token for the engine channel.
func StaticTokenSource(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}

// NewJWTTokenSource mints short-lived HS256 identity tokens from a shared
// secret. ReuseTokenSource keeps refresh out of band of request handling:
// a token is re-minted only once the previous one expires.
func NewJWTTokenSource(secret, issuer string, ttl time.Duration) oauth2.TokenSource {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return oauth2.ReuseTokenSource(nil, &jwtTokenSource{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	})
}

type jwtTokenSource struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func (s *jwtTokenSource) Token() (*oauth2.Token, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		Expiry:      now.Add(s.ttl),
	}, nil
}
