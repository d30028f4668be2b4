package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid body decodes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"hello"}`))
		var p payload
		require.NoError(t, DecodeJSON(r, &p))
		assert.Equal(t, "hello", p.Name)
	})

	t.Run("malformed body returns error", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		var p payload
		assert.Error(t, DecodeJSON(r, &p))
	})
}

func TestValidateRequest(t *testing.T) {
	type tagged struct {
		Email string `validate:"required,email"`
	}

	t.Run("struct tags", func(t *testing.T) {
		assert.Error(t, ValidateRequest(tagged{Email: "not-an-email"}))
		assert.NoError(t, ValidateRequest(tagged{Email: "a@example.com"}))
	})

	t.Run("custom Validate takes precedence", func(t *testing.T) {
		assert.ErrorIs(t, ValidateRequest(selfValidating{}), errSelfValidation)
	})
}

var errSelfValidation = errors.New("self validation failed")

type selfValidating struct{}

func (selfValidating) Validate() error { return errSelfValidation }
