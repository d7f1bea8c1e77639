package api

import (
	"net/http"
	"strings"
)

// requireSession guards recruiter routes. The contract is minimal: present a
// valid session token or get a 401. Token issuance lives outside this
// service.
func (a *API) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		session, err := a.db.GetSession(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "session lookup failed")
			return
		}
		if session == nil {
			writeError(w, http.StatusUnauthorized, "valid session required")
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
