// users.go — обработчики /api/v1/users endpoints.
// Зеркальны обработчикам администраторов, но без managerFlag
// и с дополнительными атрибутами additionalInfo.
package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/bigkaa/backoffice/internal/api/errors"
	"github.com/bigkaa/backoffice/internal/domain/model"
	"github.com/bigkaa/backoffice/internal/service"
)

// userResponse — представление пользователя в API.
type userResponse struct {
	ID               int64             `json:"id"`
	LoginID          string            `json:"loginId"`
	Name             string            `json:"name"`
	UseFlag          bool              `json:"useFlag"`
	Authorities      []model.Authority `json:"authorities"`
	AdditionalInfo   map[string]any    `json:"additionalInfo,omitempty"`
	ChangePasswordAt *time.Time        `json:"changePasswordAt,omitempty"`
	LatestActiveAt   *time.Time        `json:"latestActiveAt,omitempty"`
	JoinedAt         *time.Time        `json:"joinedAt,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	CreatedBy        *model.UserSimple `json:"createdBy,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	UpdatedBy        *model.UserSimple `json:"updatedBy,omitempty"`
}

func mapUser(user *model.User) userResponse {
	return userResponse{
		ID:               *user.ID,
		LoginID:          user.LoginID,
		Name:             user.Name,
		UseFlag:          user.UseFlag,
		Authorities:      user.Authorities,
		AdditionalInfo:   user.AdditionalInfo,
		ChangePasswordAt: user.ChangePasswordAt,
		LatestActiveAt:   user.LatestActiveAt,
		JoinedAt:         user.JoinedAt,
		CreatedAt:        user.CreatedAt,
		CreatedBy:        user.Creator,
		UpdatedAt:        user.UpdatedAt,
		UpdatedBy:        user.Updater,
	}
}

// userRequest — тело создания и обновления пользователя.
type userRequest struct {
	LoginID        string            `json:"loginId"`
	Password       *string           `json:"password,omitempty"`
	Name           string            `json:"name"`
	UseFlag        bool              `json:"useFlag"`
	Authorities    []model.Authority `json:"authorities"`
	AdditionalInfo map[string]any    `json:"additionalInfo,omitempty"`
}

// ListUsers — GET /api/v1/users.
// Доступ: USER_VIEW.
func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := service.UserListParams{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
		LoginID:  r.URL.Query().Get("loginId"),
		Name:     r.URL.Query().Get("name"),
		UseFlag:  queryBool(r, "useFlag"),
	}

	result, err := h.users.GetUserList(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]userResponse, 0, len(result.Items))
	for _, user := range result.Items {
		items = append(items, mapUser(user))
	}
	writeJSON(w, http.StatusOK, listResponse[userResponse]{
		Page:     result.Page,
		PageSize: result.PageSize,
		Total:    result.Total,
		Items:    items,
	})
}

// GetUser — GET /api/v1/users/{id}.
// Доступ: USER_VIEW.
func (h *APIHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный id")
		return
	}

	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUser(user))
}

// CreateUser — POST /api/v1/users.
// Доступ: USER_EDIT.
func (h *APIHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	operator := h.requireOperator(w, r)
	if operator == nil {
		return
	}

	var req userRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LoginID == "" || req.Password == nil || *req.Password == "" {
		apierrors.ValidationError(w, "loginId и password обязательны")
		return
	}

	user, err := h.users.CreateUser(r.Context(), operator, service.CreateUserParams{
		LoginID:        req.LoginID,
		Password:       *req.Password,
		Name:           req.Name,
		UseFlag:        req.UseFlag,
		Authorities:    req.Authorities,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapUser(user))
}

// UpdateUser — PUT /api/v1/users/{id}.
// Доступ: USER_EDIT.
func (h *APIHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	operator := h.requireOperator(w, r)
	if operator == nil {
		return
	}

	id, err := idFromURL(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный id")
		return
	}

	var req userRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LoginID == "" {
		apierrors.ValidationError(w, "loginId обязателен")
		return
	}

	user, err := h.users.UpdateUser(r.Context(), operator, id, service.UpdateUserParams{
		LoginID:        req.LoginID,
		Password:       req.Password,
		Name:           req.Name,
		UseFlag:        req.UseFlag,
		Authorities:    req.Authorities,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUser(user))
}

// DeleteUser — DELETE /api/v1/users/{id}.
// Мягкое удаление. Доступ: USER_EDIT.
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	operator := h.requireOperator(w, r)
	if operator == nil {
		return
	}

	id, err := idFromURL(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный id")
		return
	}

	if err := h.users.DeleteUser(r.Context(), operator, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeUserPassword — PATCH /api/v1/users/{id}/password.
// Пользователь может менять только собственный пароль.
func (h *APIHandler) ChangeUserPassword(w http.ResponseWriter, r *http.Request) {
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

	if err := h.users.ChangeUserPassword(r.Context(), operator, id, req.OldPassword, req.NewPassword); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoginUser — POST /api/v1/users/login. Публичный.
func (h *APIHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.LoginID == "" || req.Password == "" {
		apierrors.ValidationError(w, "loginId и password обязательны")
		return
	}

	pair, err := h.users.LoginUser(r.Context(), req.LoginID, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// RenewUserToken — GET /api/v1/users/renew-token. Публичный.
// Refresh-токен передаётся как Bearer в заголовке Authorization.
func (h *APIHandler) RenewUserToken(w http.ResponseWriter, r *http.Request) {
	refreshToken := bearerToken(r)
	if refreshToken == "" {
		apierrors.Unauthorized(w, "Отсутствует refresh-токен")
		return
	}

	pair, err := h.users.RenewUserToken(r.Context(), refreshToken)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// LogoutUser — DELETE /api/v1/users/logout.
func (h *APIHandler) LogoutUser(w http.ResponseWriter, r *http.Request) {
	operator := h.requireOperator(w, r)
	if operator == nil {
		return
	}
	h.users.LogoutUser(r.Context(), operator)
	w.WriteHeader(http.StatusNoContent)
}

// CheckUserLoginID — GET /api/v1/users/check-login-id?loginId=... Публичный.
func (h *APIHandler) CheckUserLoginID(w http.ResponseWriter, r *http.Request) {
	loginID := r.URL.Query().Get("loginId")
	if loginID == "" {
		apierrors.ValidationError(w, "loginId обязателен")
		return
	}

	joined, err := h.users.CheckUserLoginID(r.Context(), loginID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkLoginIDResponse{LoginID: loginID, Joined: joined})
}
