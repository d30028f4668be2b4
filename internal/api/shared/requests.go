package shared

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Validate is the validator instance shared by all handlers. The validator
// caches struct metadata, so a single instance is both faster and the
// documented usage.
var Validate = validator.New()

// DecodeJSON decodes the request body into v. The body is limited to 1 MiB;
// vocabulary payloads are small and anything larger is a client error.
func DecodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// ValidateRequest validates v. Types that implement their own Validate()
// take precedence over struct tags.
func ValidateRequest(v interface{}) error {
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}
	return Validate.Struct(v)
}
