package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// validate is shared across request handlers; validator.New() builds and
// caches struct-tag reflection metadata per type, so a single package-level
// instance is the idiomatic way to use it rather than constructing one per
// request.
var validate = validator.New()

// decodeAndValidate decodes the request body into dst and, if dst's type
// carries `validate` struct tags, enforces them. A validation failure is
// reported the same way a JSON decode failure is: 400 with the offending
// field(s) named.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	if err := validate.Struct(dst); err != nil {
		return err
	}
	return nil
}
