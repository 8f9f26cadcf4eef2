package testutil

import (
	"net/http"

	"idproof/pkg/requestcontext"
)

// WithRequestID adds a request ID to the request context, simulating the
// request id middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
