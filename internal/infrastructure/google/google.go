package googleclient

import (
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/gommon/log"
)

// URL where Google publishes the public keys its ID tokens are signed with
const jwksURL = "https://www.googleapis.com/oauth2/v3/certs"

var validIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

var (
	ErrTokenInvalid = errors.New("google id token is invalid")
	ErrWrongIssuer  = errors.New("token was not issued by google")
	ErrWrongClient  = errors.New("token was issued for a different client id")
)

// Identity is the subset of Google ID-token claims the app consumes.
type Identity struct {
	Sub      string
	Email    string
	Name     string
	Picture  string
	Verified bool
}

type TokenVerifier interface {
	Verify(idToken string) (*Identity, error)
}

type googleVerifier struct {
	jwks     keyfunc.Keyfunc
	clientID string
}

// NewTokenVerifier fetches Google's JWKS and keeps it refreshed in the
// background (keyfunc handles rotation).
func NewTokenVerifier(clientID string) (TokenVerifier, error) {
	jwks, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS from resource at %s: %w", jwksURL, err)
	}

	log.Infof("Google JWKS initialized. Keys loaded from %s", jwksURL)
	return &googleVerifier{jwks: jwks, clientID: clientID}, nil
}

func (g *googleVerifier) Verify(idToken string) (*Identity, error) {
	token, err := jwt.Parse(idToken, g.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if !issuedByGoogle(claims) {
		return nil, ErrWrongIssuer
	}

	if aud, _ := claims.GetAudience(); !contains(aud, g.clientID) {
		return nil, ErrWrongClient
	}

	return &Identity{
		Sub:      stringClaim(claims, "sub"),
		Email:    stringClaim(claims, "email"),
		Name:     stringClaim(claims, "name"),
		Picture:  stringClaim(claims, "picture"),
		Verified: boolClaim(claims, "email_verified"),
	}, nil
}

func issuedByGoogle(claims jwt.MapClaims) bool {
	iss, err := claims.GetIssuer()
	if err != nil {
		return false
	}

	for _, valid := range validIssuers {
		if iss == valid {
			return true
		}
	}
	return false
}

func contains(aud jwt.ClaimStrings, clientID string) bool {
	for _, a := range aud {
		if a == clientID {
			return true
		}
	}
	return false
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}

func boolClaim(claims jwt.MapClaims, key string) bool {
	if val, ok := claims[key].(bool); ok {
		return val
	}
	return false
}
