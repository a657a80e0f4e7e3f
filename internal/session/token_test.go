package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Тесты Decode: payload разбирается без проверки подписи, поэтому токены
// подписываются произвольным ключом.

var testKey = []byte("not-the-backend-key")

func mint(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)
	return s
}

func TestDecode_OK(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := mint(t, jwt.MapClaims{"exp": exp.Unix(), "role": "Faculty", "sub": "42"})

	c, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, RoleFaculty, c.Role)
	require.True(t, c.Expiry.Equal(exp))
	require.Equal(t, "42", c.Subject)
	require.False(t, c.Expired(time.Now()))
}

// Токены бэкенда несут jti строкой (RFC 7519); числовой jti — битый payload.
func TestDecode_JTI(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Unix()

	_, err := Decode(mint(t, jwt.MapClaims{"exp": exp, "role": "student", "jti": "6f1c2a"}))
	require.NoError(t, err)

	_, err = Decode(mint(t, jwt.MapClaims{"exp": exp, "role": "student", "jti": 12345}))
	require.ErrorIs(t, err, ErrMalformedToken)
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		raw    string
		reason string
	}{
		{name: "empty", raw: "  ", reason: "empty token"},
		{name: "garbage", raw: "not-a-jwt", reason: "parse payload"},
		{name: "bad_base64", raw: "a.%%%.c", reason: "parse payload"},
		{name: "no_exp", raw: mint(t, jwt.MapClaims{"role": "student"}), reason: "missing exp claim"},
		{name: "no_role", raw: mint(t, jwt.MapClaims{"exp": exp}), reason: "missing role claim"},
		{name: "unknown_role", raw: mint(t, jwt.MapClaims{"exp": exp, "role": "admin"}), reason: "unknown role"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(tt.raw)
			require.Error(t, err)
			require.ErrorIs(t, err, ErrMalformedToken)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			require.Contains(t, de.Reason, tt.reason)
		})
	}
}

func TestClaims_Expired_Boundary(t *testing.T) {
	t.Parallel()

	now := time.Now()
	require.True(t, Claims{Expiry: now}.Expired(now))
	require.True(t, Claims{Expiry: now.Add(-time.Second)}.Expired(now))
	require.False(t, Claims{Expiry: now.Add(time.Second)}.Expired(now))
}

func TestRole_In_CaseInsensitive(t *testing.T) {
	t.Parallel()

	require.True(t, Role("FACULTY").In([]Role{RoleFaculty}))
	require.True(t, RoleStudent.In([]Role{"Student"}))
	require.False(t, RoleStudent.In([]Role{RoleFaculty}))
	require.False(t, Role("").In([]Role{""}))
	require.False(t, RoleStudent.In(nil))
}

func TestNormalizeRole(t *testing.T) {
	t.Parallel()

	require.Equal(t, RoleStudent, NormalizeRole("  Student "))
	require.True(t, NormalizeRole("FACULTY").Known())
	require.False(t, NormalizeRole("dean").Known())
}
