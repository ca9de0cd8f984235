package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"timetracker/internal/requestctx"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with a correlation id and echoes it in
// the response. An inbound header is honored only when it is a
// well-formed UUID, so upstream proxies can stitch traces together but
// arbitrary client strings never reach the logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)
		ctx := requestctx.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
