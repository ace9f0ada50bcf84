package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"reelbot/internal/logging"
)

// requireToken guards next with the configured API bearer token. An empty
// token leaves the endpoint open, which is only safe on a loopback bind.
func (s *apiServer) requireToken(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	want := []byte(token)
	return func(w http.ResponseWriter, r *http.Request) {
		if got, ok := bearerToken(r); ok && subtle.ConstantTimeCompare([]byte(got), want) == 1 {
			next(w, r)
			return
		}
		s.log().Warn("api request rejected",
			logging.String(logging.FieldEventType, "api_unauthorized"),
			logging.String("path", r.URL.Path),
			logging.String("remote_addr", r.RemoteAddr),
			logging.String(logging.FieldErrorHint, "pass the server.api_token value as a bearer token"),
		)
		w.Header().Set("WWW-Authenticate", `Bearer realm="reelbot"`)
		s.writeError(w, http.StatusUnauthorized, "unauthorized")
	}
}

// bearerToken extracts the credentials of a Bearer Authorization header.
// The scheme name is case-insensitive.
func bearerToken(r *http.Request) (string, bool) {
	scheme, credentials, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	credentials = strings.TrimSpace(credentials)
	return credentials, credentials != ""
}
