package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wallet = "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"

func TestIssueAndVerify(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tok, err := Issue(wallet, 10, "aelin", "secret", time.Hour, now)
	require.NoError(t, err)

	got, err := Verify(tok, "aelin", "secret", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", got.Address)
	assert.Equal(t, int64(10), got.ChainID)
	assert.Equal(t, now.Add(time.Hour).Unix(), got.ExpiresAt.Unix())
}

func TestVerify_Rejects(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tok, err := Issue(wallet, 1, "aelin", "secret", time.Hour, now)
	require.NoError(t, err)

	_, err = Verify(tok, "aelin", "other-secret", now)
	assert.Error(t, err, "wrong secret")

	_, err = Verify(tok, "someone-else", "secret", now)
	assert.Error(t, err, "wrong issuer")

	_, err = Verify(tok, "aelin", "secret", now.Add(2*time.Hour))
	assert.Error(t, err, "expired")

	_, err = Verify("", "aelin", "secret", now)
	assert.Error(t, err)
}

func TestVerify_RequiresWalletSubject(t *testing.T) {
	now := time.Unix(1700000000, 0)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "not-a-wallet",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = Verify(s, "", "secret", now)
	assert.Error(t, err)
}

func TestIssue_RejectsBadAddress(t *testing.T) {
	_, err := Issue("0x123", 1, "aelin", "secret", time.Hour, time.Now())
	assert.Error(t, err)
	_, err = Issue(wallet, 1, "aelin", "", time.Hour, time.Now())
	assert.Error(t, err)
}
