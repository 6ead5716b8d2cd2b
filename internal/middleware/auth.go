package middleware

import (
	"net/http"
	"strings"
)

// AuthCookie must match the cookie issued by the login handler.
const AuthCookie = "authenticated"

// AuthMiddleware sprawdza, czy użytkownik jest zalogowany (ma cookie 'authenticated=true')
// dla żądań zmieniających stan. Streamy, tabele i odczyty są dostępne bez logowania.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !requiresAuth(r) {
			next.ServeHTTP(w, r)
			return
		}

		// Sprawdź czy użytkownik jest zalogowany
		cookie, err := r.Cookie(AuthCookie)
		if err != nil || cookie.Value != "true" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requiresAuth(r *http.Request) bool {
	if r.URL.Path == "/auth/login" {
		return false
	}
	if strings.HasPrefix(r.URL.Path, "/logs/") {
		return true
	}
	return r.Method != http.MethodGet && r.Method != http.MethodHead
}
