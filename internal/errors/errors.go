// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// UpstreamError carries a non-2xx status from the upstream tracker along
// with whatever detail the upstream response body provided. The API layer
// decides per endpoint whether the status is passed through or remapped.
type UpstreamError struct {
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded %d: %s", e.StatusCode, e.Detail)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == 404
}

// IsUnauthorized reports whether err is an upstream 401, which indicates
// misconfigured credentials rather than bad caller input.
func IsUnauthorized(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == 401
}
