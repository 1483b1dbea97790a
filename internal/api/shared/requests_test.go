package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Reason string `json:"reason"`
	}

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "valid json", body: `{"reason": "done"}`, want: "done"},
		{name: "empty body", body: "", want: ""},
		{name: "invalid json", body: `{"reason": "done",}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tc.body))

			var p payload
			err := DecodeJSON(req, &p)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, p.Reason)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type request struct {
		Reason string `validate:"max=5"`
	}

	assert.NoError(t, ValidateRequest(request{Reason: "short"}))
	assert.Error(t, ValidateRequest(request{Reason: "too long"}))
}

func TestReadBody(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("abc"))
		body, err := ReadBody(httptest.NewRecorder(), req, 3)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(body))
	})

	t.Run("over limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("abcd"))
		_, err := ReadBody(httptest.NewRecorder(), req, 3)
		assert.ErrorIs(t, err, ErrBodyTooLarge)
	})
}
