package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/wordclaim/internal/api/shared"
	"github.com/phrazzld/wordclaim/internal/window"
)

// WindowClosedMessage is the error body returned once registration ends.
const WindowClosedMessage = "registration window has closed"

// RegistrationWindow rejects requests with 403 once guard's window closes.
// While open it reports the seconds left in the X-Window-Remaining header.
func RegistrationWindow(guard *window.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !guard.IsOpen() {
				shared.RespondWithError(w, r, http.StatusForbidden, WindowClosedMessage)
				return
			}
			remaining := int64(guard.Remaining() / time.Second)
			w.Header().Set("X-Window-Remaining", strconv.FormatInt(remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}
