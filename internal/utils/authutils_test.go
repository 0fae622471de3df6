package utils_test

import (
	"testing"

	"socialnotes/internal/utils"

	"github.com/stretchr/testify/require"
)

func initSigner(t *testing.T) {
	t.Helper()
	require.NoError(t, utils.InitTokenSigner("unit-test-secret"))
}

func TestGenerateTokenPair_Roundtrip(t *testing.T) {
	initSigner(t)

	pair, err := utils.GenerateTokenPair(42, "alice@mail.com")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	data, err := utils.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.EqualValues(t, 42, data.UserID)
	require.Equal(t, "alice@mail.com", data.Email)
	require.Positive(t, data.Exp)

	rdata, err := utils.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	require.EqualValues(t, 42, rdata.UserID)
}

func TestValidateToken_KindSegregation(t *testing.T) {
	initSigner(t)

	pair, err := utils.GenerateTokenPair(1, "a@mail.com")
	require.NoError(t, err)

	// A refresh token must never pass as an access token, and vice versa
	_, err = utils.ValidateAccessToken(pair.RefreshToken)
	require.Error(t, err)

	_, err = utils.ValidateRefreshToken(pair.AccessToken)
	require.Error(t, err)
}

func TestValidateAccessToken_BearerPrefix(t *testing.T) {
	initSigner(t)

	pair, err := utils.GenerateTokenPair(9, "b@mail.com")
	require.NoError(t, err)

	data, err := utils.ValidateAccessToken("Bearer " + pair.AccessToken)
	require.NoError(t, err)
	require.EqualValues(t, 9, data.UserID)
}

func TestValidateAccessToken_Tampered(t *testing.T) {
	initSigner(t)

	pair, err := utils.GenerateTokenPair(1, "a@mail.com")
	require.NoError(t, err)

	_, err = utils.ValidateAccessToken(pair.AccessToken + "x")
	require.Error(t, err)

	_, err = utils.ValidateAccessToken("not-a-jwt")
	require.Error(t, err)
}

func TestHashToken(t *testing.T) {
	require.Equal(t, utils.HashToken("abc"), utils.HashToken("abc"))
	require.NotEqual(t, utils.HashToken("abc"), utils.HashToken("abd"))
	require.Len(t, utils.HashToken("abc"), 64) // hex sha256
}
