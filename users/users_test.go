package users_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-partner-dashboard/users"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	u, err := users.Parse(json.RawMessage(`{"id":42,"email":"ada@partner.test","first_name":"Ada","last_name":"Obi","is_partner":true,"is_staff":false}`))
	require.NoError(t, err)
	require.Equal(t, "42", u.ID())
	require.Equal(t, "Ada Obi", u.DisplayName())
	require.Equal(t, "ada@partner.test", u.Login())
	require.True(t, u.HasFlag("is_partner"))
	require.False(t, u.HasFlag("is_staff"))
	require.False(t, u.HasFlag("is_superuser"))
}

func TestParse_Invalid(t *testing.T) {
	for _, raw := range []string{``, `null`, `"ada"`, `[1]`} {
		_, err := users.Parse(json.RawMessage(raw))
		require.Error(t, err, raw)
	}
}

func TestDisplayName_FallsBackToLogin(t *testing.T) {
	u, err := users.Parse(json.RawMessage(`{"phone_number":"+254700000001"}`))
	require.NoError(t, err)
	require.Equal(t, "+254700000001", u.DisplayName())
	require.Empty(t, u.ID())

	u, err = users.Parse(json.RawMessage(`{"id":"8f1c","username":"ada","first_name":" "}`))
	require.NoError(t, err)
	require.Equal(t, "ada", u.DisplayName())
	require.Equal(t, "8f1c", u.ID())
}

func TestHasFlag_OnlyBooleanTrue(t *testing.T) {
	u, err := users.Parse(json.RawMessage(`{"a":"true","b":1,"c":true}`))
	require.NoError(t, err)
	require.False(t, u.HasFlag("a"))
	require.False(t, u.HasFlag("b"))
	require.True(t, u.HasFlag("c"))
}
