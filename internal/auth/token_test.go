package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/gigbid/internal/entity"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("secret", "gigbid", time.Hour)

	raw, exp, err := issuer.Issue(Identity{UserID: 42, Role: entity.RoleSeller})
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := issuer.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, Identity{UserID: 42, Role: entity.RoleSeller}, id)
}

func TestIssuer_RejectsUnknownRole(t *testing.T) {
	issuer := NewIssuer("secret", "gigbid", time.Hour)
	_, _, err := issuer.Issue(Identity{UserID: 1, Role: "root"})
	require.Error(t, err)
}

func TestIssuer_ParseFailures(t *testing.T) {
	issuer := NewIssuer("secret", "gigbid", time.Hour)
	valid, _, err := issuer.Issue(Identity{UserID: 7, Role: entity.RoleBuyer})
	require.NoError(t, err)

	expired := NewIssuer("secret", "gigbid", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := expired.Issue(Identity{UserID: 7, Role: entity.RoleBuyer})
	require.NoError(t, err)

	otherIssuer, _, err := NewIssuer("secret", "someone-else", time.Hour).Issue(Identity{UserID: 7, Role: entity.RoleBuyer})
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: entity.RoleBuyer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-number",
			Issuer:    "gigbid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
		iss  *Issuer
	}{
		{name: "garbage", raw: "not.a.jwt", iss: issuer},
		{name: "wrong_secret", raw: valid, iss: NewIssuer("other", "gigbid", time.Hour)},
		{name: "expired", raw: stale, iss: issuer},
		{name: "wrong_issuer", raw: otherIssuer, iss: issuer},
		{name: "bad_subject", raw: badSubject, iss: issuer},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.iss.Parse(tc.raw)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}
