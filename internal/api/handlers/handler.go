// handler.go — основной обработчик API Backoffice.
// Объединяет доменные обработчики, объявляет маршруты и делегирует
// запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/backoffice/internal/api/errors"
	"github.com/bigkaa/backoffice/internal/api/middleware"
	"github.com/bigkaa/backoffice/internal/domain/model"
	"github.com/bigkaa/backoffice/internal/service"
)

// APIHandler — основной обработчик API Backoffice.
type APIHandler struct {
	health  *HealthHandler
	admins  *service.AdminService
	users   *service.UserService
	notices *service.NoticeService
	logger  *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	admins *service.AdminService,
	users *service.UserService,
	notices *service.NoticeService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:  health,
		admins:  admins,
		users:   users,
		notices: notices,
		logger:  logger.With(slog.String("component", "api_handler")),
	}
}

// RegisterRoutes объявляет маршруты API на роутере.
// Аутентификация применяется глобально в server; здесь — только
// проверки прав на конкретные маршруты.
func (h *APIHandler) RegisterRoutes(router chi.Router) {
	router.Get("/health/liveness", h.health.HealthLive)
	router.Get("/health/readiness", h.health.HealthReady)
	router.Get("/metrics", h.health.GetMetrics)

	router.Route("/api/v1/admins", func(r chi.Router) {
		// Публичные маршруты (исключены из auth-middleware в server).
		r.Post("/login", h.LoginAdmin)
		r.Get("/renew-token", h.RenewAdminToken)
		r.Get("/check-login-id", h.CheckAdminLoginID)

		r.Get("/me", h.GetMe)
		r.Delete("/logout", h.LogoutAdmin)

		r.With(middleware.RequireAuthority(model.AuthorityAdminView)).
			Get("/", h.ListAdmins)
		r.With(middleware.RequireAuthority(model.AuthorityAdminView)).
			Get("/{id}", h.GetAdmin)
		r.With(middleware.RequireAuthority(model.AuthorityAdminEdit)).
			Post("/", h.CreateAdmin)
		r.With(middleware.RequireAuthority(model.AuthorityAdminEdit)).
			Put("/{id}", h.UpdateAdmin)
		r.With(middleware.RequireAuthority(model.AuthorityAdminEdit)).
			Delete("/{id}", h.DeleteAdmin)
		r.Patch("/{id}/password", h.ChangeAdminPassword)
	})

	router.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/login", h.LoginUser)
		r.Get("/renew-token", h.RenewUserToken)
		r.Get("/check-login-id", h.CheckUserLoginID)

		r.Get("/me", h.GetMe)
		r.Delete("/logout", h.LogoutUser)

		r.With(middleware.RequireAuthority(model.AuthorityUserView)).
			Get("/", h.ListUsers)
		r.With(middleware.RequireAuthority(model.AuthorityUserView)).
			Get("/{id}", h.GetUser)
		r.With(middleware.RequireAuthority(model.AuthorityUserEdit)).
			Post("/", h.CreateUser)
		r.With(middleware.RequireAuthority(model.AuthorityUserEdit)).
			Put("/{id}", h.UpdateUser)
		r.With(middleware.RequireAuthority(model.AuthorityUserEdit)).
			Delete("/{id}", h.DeleteUser)
		r.Patch("/{id}/password", h.ChangeUserPassword)
	})

	router.Route("/api/v1/notices", func(r chi.Router) {
		r.With(middleware.RequireAuthority(model.AuthorityNoticeView)).
			Get("/", h.ListNotices)
		r.With(middleware.RequireAuthority(model.AuthorityNoticeView)).
			Get("/{id}", h.GetNotice)
		r.With(middleware.RequireAuthority(model.AuthorityNoticeEdit)).
			Post("/", h.CreateNotice)
		r.With(middleware.RequireAuthority(model.AuthorityNoticeEdit)).
			Put("/{id}", h.UpdateNotice)
		r.With(middleware.RequireAuthority(model.AuthorityNoticeEdit)).
			Delete("/{id}", h.DeleteNotice)
	})
}

// PublicPaths возвращает пути, доступные без access-токена.
func PublicPaths() []string {
	return []string{
		"/health/",
		"/metrics",
		"/api/v1/admins/login",
		"/api/v1/admins/renew-token",
		"/api/v1/admins/check-login-id",
		"/api/v1/users/login",
		"/api/v1/users/renew-token",
		"/api/v1/users/check-login-id",
	}
}

// GetMe — GET /api/v1/{admins,users}/me.
// Возвращает профиль оператора из access-токена.
func (h *APIHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	operator := middleware.OperatorFromContext(r.Context())
	if operator == nil {
		apierrors.Unauthorized(w, "Отсутствует оператор в контексте")
		return
	}
	writeJSON(w, http.StatusOK, operatorResponse{
		ID:          operator.ID,
		LoginID:     operator.LoginID,
		Name:        operator.Name,
		Type:        operator.Type,
		ManagerFlag: operator.ManagerFlag,
		Authorities: operator.Authorities,
	})
}

// operatorResponse — профиль текущего оператора.
type operatorResponse struct {
	ID          int64             `json:"id"`
	LoginID     string            `json:"loginId"`
	Name        string            `json:"name"`
	Type        model.UserType    `json:"type"`
	ManagerFlag bool              `json:"managerFlag"`
	Authorities []model.Authority `json:"authorities"`
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// idFromURL извлекает числовой параметр {id} из пути.
func idFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// queryInt возвращает числовой query-параметр либо значение по умолчанию.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}

// queryBool возвращает булев query-параметр; nil — параметр не задан.
func queryBool(r *http.Request, name string) *bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}

// decodeBody разбирает JSON-тело запроса.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: "+err.Error())
		return false
	}
	return true
}

// writeServiceError транслирует ошибку сервисного слоя в HTTP-ответ.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownAdmin),
		errors.Is(err, service.ErrUnknownUser),
		errors.Is(err, service.ErrUnknownNotice):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrAlreadyJoinedAccount):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrUnjoinedAccount),
		errors.Is(err, service.ErrInvalidPassword),
		errors.Is(err, service.ErrUnauthorized):
		apierrors.Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrCannotChangeOthersPassword):
		apierrors.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrCannotUpdateYourself),
		errors.Is(err, service.ErrCannotRemoveYourself),
		errors.Is(err, service.ErrChangeToSamePassword),
		errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	default:
		h.logger.Error("Внутренняя ошибка", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

// requireOperator извлекает оператора из контекста либо пишет 401.
func (h *APIHandler) requireOperator(w http.ResponseWriter, r *http.Request) *model.Operator {
	operator := middleware.OperatorFromContext(r.Context())
	if operator == nil {
		apierrors.Unauthorized(w, "Отсутствует оператор в контексте")
	}
	return operator
}
