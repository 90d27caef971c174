package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"tradeboard/pkg/crypto"
)

// Auth - middleware для аутентификации запросов дашборда
//
// Назначение:
// Проверяет Bearer токен из заголовка Authorization против bcrypt хеша
// из конфигурации (DASHBOARD_TOKEN_HASH).
//
// Конфигурация:
// - tokenHash: bcrypt хеш токена дашборда
// - Пустой tokenHash отключает проверку (локальное развертывание)
//
// Дашборд single-user: ролей и user-specific claims нет, валидный
// токен дает полный доступ к API.
func Auth(tokenHash string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Auth не настроен - пропускаем все запросы
			if tokenHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="tradeboard"`)
				http.Error(w, "Authorization required", http.StatusUnauthorized)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				http.Error(w, "Authorization header must use Bearer scheme", http.StatusUnauthorized)
				return
			}

			if err := crypto.VerifyToken(token, tokenHash); err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
