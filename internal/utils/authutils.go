package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 30 * 24 * time.Hour

	claimKind        = "kind"
	kindAccessToken  = "access"
	kindRefreshToken = "refresh"
)

var signingSecret []byte

// InitTokenSigner stores the HS256 secret used for both token kinds.
// Must be called once at startup, before any token is minted or checked.
func InitTokenSigner(secret string) error {
	if strings.TrimSpace(secret) == "" {
		return errors.New("token secret cannot be empty")
	}
	signingSecret = []byte(secret)
	return nil
}

type TokenData struct {
	UserID int64
	Email  string
	Exp    int64
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// GenerateTokenPair mints the access/refresh pair for a user. Both carry the
// user ID as "sub"; the "kind" claim keeps a refresh token from ever being
// accepted on regular endpoints.
func GenerateTokenPair(userID int64, email string) (*TokenPair, error) {
	now := time.Now()

	accessClaims := jwt.MapClaims{
		"sub":     strconv.FormatInt(userID, 10),
		"email":   email,
		claimKind: kindAccessToken,
		"exp":     now.Add(AccessTokenTTL).Unix(),
		"iat":     now.Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(signingSecret)
	if err != nil {
		return nil, err
	}

	// The jti makes every refresh token unique even within the same second,
	// otherwise rotation could mint a byte-identical token.
	refreshClaims := jwt.MapClaims{
		"sub":     strconv.FormatInt(userID, 10),
		"jti":     uuid.NewString(),
		claimKind: kindRefreshToken,
		"exp":     now.Add(RefreshTokenTTL).Unix(),
		"iat":     now.Unix(),
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(signingSecret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateAccessToken parses AND validates the signature locally.
// It returns the data if the token is authentic, unexpired and of the
// access kind.
func ValidateAccessToken(tokenString string) (*TokenData, error) {
	return validateToken(tokenString, kindAccessToken)
}

// ValidateRefreshToken is the refresh-kind counterpart. Callers still have
// to compare the token's hash against the one stored on the user row.
func ValidateRefreshToken(tokenString string) (*TokenData, error) {
	return validateToken(tokenString, kindRefreshToken)
}

func validateToken(tokenString, wantKind string) (*TokenData, error) {
	if signingSecret == nil {
		return nil, errors.New("token signer not initialized")
	}

	clean := sanitizeToken(tokenString)
	token, err := jwt.Parse(clean, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return signingSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims format")
	}

	if getValue(claims, claimKind) != wantKind {
		return nil, errors.New("wrong token kind")
	}

	userID, err := strconv.ParseInt(getValue(claims, "sub"), 10, 64)
	if err != nil {
		return nil, errors.New("malformed subject claim")
	}

	return &TokenData{
		UserID: userID,
		Email:  getValue(claims, "email"),
		Exp:    getInt64(claims, "exp"),
	}, nil
}

func ParseTokenDataCtx(ctx echo.Context) (*TokenData, error) {
	token := ctx.Request().Header.Get(echo.HeaderAuthorization)
	return ValidateAccessToken(token)
}

// HashToken is the storage form of refresh tokens: only the SHA-256 lands
// in the database, so a leaked dump cannot be replayed.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func sanitizeToken(token string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
}

func getValue(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}

func getInt64(claims jwt.MapClaims, key string) int64 {
	val, ok := claims[key]
	if !ok {
		return 0
	}
	if f, ok := val.(float64); ok {
		return int64(f)
	}
	if i, ok := val.(int64); ok {
		return i
	}
	return 0
}
