// auth.go — JWT middleware аутентификации Backoffice.
// Извлекает Bearer access-токен, проверяет подпись и срок действия,
// восстанавливает оператора из claims и помещает его в контекст запроса.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/backoffice/internal/api/errors"
	"github.com/bigkaa/backoffice/internal/domain/model"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyOperator — аутентифицированный оператор в контексте запроса.
	ContextKeyOperator contextKey = "operator"
)

// OperatorParser разбирает access-токен в оператора.
// Реализуется service.TokenProvider.
type OperatorParser interface {
	ParseOperator(tokenString string) (*model.Operator, error)
}

// Auth — middleware аутентификации по access-токену.
type Auth struct {
	parser OperatorParser
}

// NewAuth создаёт middleware аутентификации.
func NewAuth(parser OperatorParser) *Auth {
	return &Auth{parser: parser}
}

// Middleware возвращает HTTP middleware аутентификации.
// Извлекает Bearer token, валидирует (HS512) и помещает
// *model.Operator в контекст.
func (a *Auth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			tokenString := parts[1]
			if tokenString == "" {
				apierrors.Unauthorized(w, "Пустой Bearer token")
				return
			}

			operator, err := a.parser.ParseOperator(tokenString)
			if err != nil {
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyOperator, operator)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthority возвращает middleware, требующий указанное право.
// Должен использоваться ПОСЛЕ Auth.Middleware().
func RequireAuthority(authority model.Authority) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operator := OperatorFromContext(r.Context())
			if operator == nil {
				apierrors.Unauthorized(w, "Отсутствует оператор в контексте")
				return
			}
			if !operator.HasAuthority(authority) {
				apierrors.Forbidden(w, fmt.Sprintf("Недостаточно прав: требуется %s", authority.Code()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireManager возвращает middleware, пропускающий только менеджеров.
// Должен использоваться ПОСЛЕ Auth.Middleware().
func RequireManager() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operator := OperatorFromContext(r.Context())
			if operator == nil {
				apierrors.Unauthorized(w, "Отсутствует оператор в контексте")
				return
			}
			if !operator.ManagerFlag {
				apierrors.Forbidden(w, "Доступ разрешён только менеджерам")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OperatorFromContext извлекает оператора из контекста запроса.
// Возвращает nil, если оператор не найден.
func OperatorFromContext(ctx context.Context) *model.Operator {
	operator, _ := ctx.Value(ContextKeyOperator).(*model.Operator)
	return operator
}
