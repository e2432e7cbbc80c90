// pkg/middleware/recover.go
package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"bcrelay/pkg/problems"
)

func Recover(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					reqID := RequestIDFrom(r.Context())
					log.Errorw("panic", "err", rec, "reqid", reqID, "stack", string(debug.Stack()))
					problems.Write(w, problems.Problem{
						Title:     "Internal error",
						Status:    http.StatusInternalServerError,
						ErrorKind: "internal",
						Message:   "internal error",
						RequestID: reqID,
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
