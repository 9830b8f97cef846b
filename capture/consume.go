package capture

import (
	"io"
	"net/http"
)

// EnsureBodyConsumed fully reads any unread remainder of the request body
// through its capturing wrapper. The body is walked through any number of
// delegating reader layers, each exposing its delegate via Unwrap, until the
// concrete capturing Body is found; if none remains the call is a no-op.
// When no capture mode was chosen during handling, a fresh capturer is opened
// via the preferred accessor, so a capture record exists even for a body the
// handler never touched. The operation is idempotent and safe on an empty
// body; transport I/O failures are returned untouched.
func EnsureBodyConsumed(r *http.Request, prefer Accessor) error {
	body := r.Body
	for body != nil {
		if cb, ok := body.(*Body); ok {
			return cb.Request().Drain(prefer)
		}
		u, ok := body.(interface{ Unwrap() io.ReadCloser })
		if !ok {
			return nil
		}
		body = u.Unwrap()
	}
	return nil
}
