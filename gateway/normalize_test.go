package gateway_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-partner-dashboard/gateway"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) any {
	t.Helper()
	v, err := gateway.DecodeJSON([]byte(body))
	require.NoError(t, err)
	return v
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{"detail", decode(t, `{"detail":"Not found."}`), "Not found."},
		{"message", decode(t, `{"message":"X"}`), "X"},
		{"error", decode(t, `{"error":"Device offline"}`), "Device offline"},
		{"detail wins over message", decode(t, `{"message":"second","detail":"first"}`), "first"},
		{"message wins over error", decode(t, `{"error":"third","message":"second"}`), "second"},
		{"field map", decode(t, `{"a":["x","y"],"b":["z"]}`), "a: x, y; b: z"},
		{"field map keeps arrival order", decode(t, `{"zeta":["last"],"alpha":["first"]}`), "zeta: last; alpha: first"},
		{"plain string", "plain", "plain"},
		{"decoded string", decode(t, `"plain"`), "plain"},
		{"string list", decode(t, `["e1","e2"]`), "e1 e2"},
		{"typed string list", []string{"e1", "e2"}, "e1 e2"},
		{"nil", nil, gateway.UnknownErrorMessage},
		{"json null", decode(t, `null`), gateway.UnknownErrorMessage},
		{"number", decode(t, `42`), gateway.UnknownErrorMessage},
		{"mixed list", decode(t, `["e1",2]`), gateway.UnknownErrorMessage},
		{"empty list", decode(t, `[]`), gateway.UnknownErrorMessage},
		{"empty object", decode(t, `{}`), gateway.UnknownErrorMessage},
		{"non string detail", decode(t, `{"detail":{"nested":true}}`), gateway.UnknownErrorMessage},
		{"empty detail falls through", decode(t, `{"detail":"","message":"used"}`), "used"},
		{"field with non list value", decode(t, `{"a":["x"],"b":"y"}`), gateway.UnknownErrorMessage},
		{"plain map sorted", map[string]any{"b": []any{"z"}, "a": []any{"x", "y"}}, "a: x, y; b: z"},
		{"plain map detail", map[string]any{"detail": "from map"}, "from map"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gateway.Normalize(tt.payload)
			require.Equal(t, tt.want, got)
			require.Equal(t, got, gateway.Normalize(tt.payload), "normalize is pure")
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Run("object keeps order and nests", func(t *testing.T) {
		v := decode(t, `{"b":1,"a":{"y":[true,null],"x":"s"}}`)
		obj, ok := v.(gateway.Object)
		require.True(t, ok)
		require.Equal(t, "b", obj[0].Key)
		require.Equal(t, json.Number("1"), obj[0].Value)

		inner, ok := obj[1].Value.(gateway.Object)
		require.True(t, ok)
		require.Equal(t, []any{true, nil}, inner[0].Value)
		s, ok := inner.StringValue("x")
		require.True(t, ok)
		require.Equal(t, "s", s)
	})

	t.Run("marshal keeps order", func(t *testing.T) {
		v := decode(t, `{"zeta":["1"],"alpha":2}`)
		out, err := json.Marshal(v)
		require.NoError(t, err)
		require.Equal(t, `{"zeta":["1"],"alpha":2}`, string(out))
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		for _, body := range []string{`<html>`, `{"a":}`, `{"a":1} trailing`, `[1,2`} {
			_, err := gateway.DecodeJSON([]byte(body))
			require.Error(t, err, body)
		}
	})
}
