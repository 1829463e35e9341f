// admins.go — обработчики /api/v1/admins endpoints.
// CRUD администраторов, вход, обновление и отзыв токенов, проверка логина.
package handlers

import (
	"net/http"
	"strings"
	"time"

	apierrors "github.com/bigkaa/backoffice/internal/api/errors"
	"github.com/bigkaa/backoffice/internal/domain/model"
	"github.com/bigkaa/backoffice/internal/service"
)

// adminResponse — представление администратора в API.
type adminResponse struct {
	ID               int64             `json:"id"`
	LoginID          string            `json:"loginId"`
	Name             string            `json:"name"`
	UseFlag          bool              `json:"useFlag"`
	ManagerFlag      bool              `json:"managerFlag"`
	Authorities      []model.Authority `json:"authorities"`
	ChangePasswordAt *time.Time        `json:"changePasswordAt,omitempty"`
	LatestActiveAt   *time.Time        `json:"latestActiveAt,omitempty"`
	JoinedAt         *time.Time        `json:"joinedAt,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	CreatedBy        *model.UserSimple `json:"createdBy,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	UpdatedBy        *model.UserSimple `json:"updatedBy,omitempty"`
}

func mapAdmin(admin *model.Admin) adminResponse {
	return adminResponse{
		ID:               *admin.ID,
		LoginID:          admin.LoginID,
		Name:             admin.Name,
		UseFlag:          admin.UseFlag,
		ManagerFlag:      admin.ManagerFlag,
		Authorities:      admin.Authorities,
		ChangePasswordAt: admin.ChangePasswordAt,
		LatestActiveAt:   admin.LatestActiveAt,
		JoinedAt:         admin.JoinedAt,
		CreatedAt:        admin.CreatedAt,
		CreatedBy:        admin.Creator,
		UpdatedAt:        admin.UpdatedAt,
		UpdatedBy:        admin.Updater,
	}
}

// adminRequest — тело создания и обновления администратора.
type adminRequest struct {
	LoginID     string            `json:"loginId"`
	Password    *string           `json:"password,omitempty"`
	Name        string            `json:"name"`
	UseFlag     bool              `json:"useFlag"`
	ManagerFlag bool              `json:"managerFlag"`
	Authorities []model.Authority `json:"authorities"`
}

// listResponse — страница списка.
type listResponse[T any] struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
	Items    []T   `json:"items"`
}

// ListAdmins — GET /api/v1/admins.
// Фильтры: loginId, name (подстроки), useFlag; пагинация page/pageSize.
// Доступ: ADMIN_VIEW.
func (h *APIHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	params := service.AdminListParams{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
		LoginID:  r.URL.Query().Get("loginId"),
		Name:     r.URL.Query().Get("name"),
		UseFlag:  queryBool(r, "useFlag"),
	}

	result, err := h.admins.GetAdminList(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]adminResponse, 0, len(result.Items))
	for _, admin := range result.Items {
		items = append(items, mapAdmin(admin))
	}
	writeJSON(w, http.StatusOK, listResponse[adminResponse]{
		Page:     result.Page,
		PageSize: result.PageSize,
		Total:    result.Total,
		Items:    items,
	})
}

// GetAdmin — GET /api/v1/admins/{id}.
// Доступ: ADMIN_VIEW.
func (h *APIHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный id")
		return
	}

	admin, err := h.admins.GetAdmin(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAdmin(admin))
}

// CreateAdmin — POST /api/v1/admins.
// Доступ: ADMIN_EDIT.
func (h *APIHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	operator := h.requireOperator(w, r)
	if operator == nil {
		return
	}

	var req adminRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LoginID == "" || req.Password == nil || *req.Password == "" {
		apierrors.ValidationError(w, "loginId и password обязательны")
		return
	}

	admin, err := h.admins.CreateAdmin(r.Context(), operator, service.CreateAdminParams{
		LoginID:     req.LoginID,
		Password:    *req.Password,
		Name:        req.Name,
		UseFlag:     req.UseFlag,
		ManagerFlag: req.ManagerFlag,
		Authorities: req.Authorities,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapAdmin(admin))
}

// UpdateAdmin — PUT /api/v1/admins/{id}.
// Доступ: ADMIN_EDIT.
func (h *APIHandler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	operator := h.requireOperator(w, r)
	if operator == nil {
		return
	}

	id, err := idFromURL(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный id")
		return
	}

	var req adminRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LoginID == "" {
		apierrors.ValidationError(w, "loginId обязателен")
		return
	}

	admin, err := h.admins.UpdateAdmin(r.Context(), operator, id, service.UpdateAdminParams{
		LoginID:     req.LoginID,
		Password:    req.Password,
		Name:        req.Name,
		UseFlag:     req.UseFlag,
		ManagerFlag: req.ManagerFlag,
		Authorities: req.Authorities,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAdmin(admin))
}

// DeleteAdmin — DELETE /api/v1/admins/{id}.
// Мягкое удаление. Доступ: ADMIN_EDIT.
func (h *APIHandler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	operator := h.requireOperator(w, r)
	if operator == nil {
		return
	}

	id, err := idFromURL(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный id")
		return
	}

	if err := h.admins.DeleteAdmin(r.Context(), operator, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// changePasswordRequest — тело смены пароля.
type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangeAdminPassword — PATCH /api/v1/admins/{id}/password.
func (h *APIHandler) ChangeAdminPassword(w http.ResponseWriter, r *http.Request) {
	operator := h.requireOperator(w, r)
	if operator == nil {
		return
	}

	id, err := idFromURL(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный id")
		return
	}

	var req changePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.NewPassword == "" {
		apierrors.ValidationError(w, "newPassword обязателен")
		return
	}

	if err := h.admins.ChangeAdminPassword(r.Context(), operator, id, req.OldPassword, req.NewPassword); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loginRequest — тело входа.
type loginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

// LoginAdmin — POST /api/v1/admins/login. Публичный.
func (h *APIHandler) LoginAdmin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LoginID == "" || req.Password == "" {
		apierrors.ValidationError(w, "loginId и password обязательны")
		return
	}

	pair, err := h.admins.LoginAdmin(r.Context(), req.LoginID, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// RenewAdminToken — GET /api/v1/admins/renew-token. Публичный.
// Refresh-токен передаётся как Bearer в заголовке Authorization.
func (h *APIHandler) RenewAdminToken(w http.ResponseWriter, r *http.Request) {
	refreshToken := bearerToken(r)
	if refreshToken == "" {
		apierrors.Unauthorized(w, "Отсутствует refresh-токен")
		return
	}

	pair, err := h.admins.RenewAdminToken(r.Context(), refreshToken)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// LogoutAdmin — DELETE /api/v1/admins/logout.
func (h *APIHandler) LogoutAdmin(w http.ResponseWriter, r *http.Request) {
	operator := h.requireOperator(w, r)
	if operator == nil {
		return
	}
	h.admins.LogoutAdmin(r.Context(), operator)
	w.WriteHeader(http.StatusNoContent)
}

// checkLoginIDResponse — ответ проверки занятости логина.
type checkLoginIDResponse struct {
	LoginID string `json:"loginId"`
	Joined  bool   `json:"joined"`
}

// CheckAdminLoginID — GET /api/v1/admins/check-login-id?loginId=... Публичный.
func (h *APIHandler) CheckAdminLoginID(w http.ResponseWriter, r *http.Request) {
	loginID := r.URL.Query().Get("loginId")
	if loginID == "" {
		apierrors.ValidationError(w, "loginId обязателен")
		return
	}

	joined, err := h.admins.CheckAdminLoginID(r.Context(), loginID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkLoginIDResponse{LoginID: loginID, Joined: joined})
}

// bearerToken извлекает Bearer-токен из заголовка Authorization.
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
