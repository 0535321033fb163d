package rest

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/origamishop/orders/internal/auth"
	"github.com/origamishop/orders/internal/domain"
)

// AuthMiddleware извлекает принципала из Bearer-токена.
// Запросы без валидного токена проходят дальше без принципала:
// гостевые операции доступны анонимно, а операции, требующие
// аутентификации, проверяют принципала сами. Просроченный токен
// в браузере не должен блокировать гостевое оформление заказа.
type AuthMiddleware struct {
	authenticator *auth.Authenticator
	logger        *log.Entry
}

// NewAuthMiddleware создаёт middleware аутентификации.
func NewAuthMiddleware(authenticator *auth.Authenticator, logger *log.Entry) *AuthMiddleware {
	if logger == nil {
		logger = log.New().WithField("component", "auth-middleware")
	}
	return &AuthMiddleware{authenticator: authenticator, logger: logger}
}

// Handle оборачивает обработчик проверкой токена.
func (m *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := auth.ExtractBearerToken(header)
		if err != nil {
			m.logger.WithError(err).Debug("malformed authorization header, continuing anonymously")
			next.ServeHTTP(w, r)
			return
		}

		principal, err := m.authenticator.Authenticate(token)
		if err != nil {
			m.logger.WithError(err).Debug("token rejected, continuing anonymously")
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

// requirePrincipal возвращает принципала запроса или пишет 401.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
		return domain.Principal{}, false
	}
	return principal, true
}
