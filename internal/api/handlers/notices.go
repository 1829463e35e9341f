// notices.go — обработчики /api/v1/notices endpoints.
package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/bigkaa/backoffice/internal/api/errors"
	"github.com/bigkaa/backoffice/internal/domain/model"
	"github.com/bigkaa/backoffice/internal/service"
)

// noticeResponse — представление объявления в API.
type noticeResponse struct {
	ID        int64             `json:"id"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	UseFlag   bool              `json:"useFlag"`
	CreatedAt time.Time         `json:"createdAt"`
	CreatedBy *model.UserSimple `json:"createdBy,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
	UpdatedBy *model.UserSimple `json:"updatedBy,omitempty"`
}

func mapNotice(notice *model.Notice) noticeResponse {
	return noticeResponse{
		ID:        *notice.ID,
		Title:     notice.Title,
		Content:   notice.Content,
		UseFlag:   notice.UseFlag,
		CreatedAt: notice.CreatedAt,
		CreatedBy: notice.Creator,
		UpdatedAt: notice.UpdatedAt,
		UpdatedBy: notice.Updater,
	}
}

// noticeRequest — тело создания и обновления объявления.
type noticeRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	UseFlag bool   `json:"useFlag"`
}

// ListNotices — GET /api/v1/notices.
// Доступ: NOTICE_VIEW.
func (h *APIHandler) ListNotices(w http.ResponseWriter, r *http.Request) {
	params := service.NoticeListParams{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
		Title:    r.URL.Query().Get("title"),
		UseFlag:  queryBool(r, "useFlag"),
	}

	result, err := h.notices.GetNoticeList(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]noticeResponse, 0, len(result.Items))
	for _, notice := range result.Items {
		items = append(items, mapNotice(notice))
	}
	writeJSON(w, http.StatusOK, listResponse[noticeResponse]{
		Page:     result.Page,
		PageSize: result.PageSize,
		Total:    result.Total,
		Items:    items,
	})
}

// GetNotice — GET /api/v1/notices/{id}.
// Доступ: NOTICE_VIEW.
func (h *APIHandler) GetNotice(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный id")
		return
	}

	notice, err := h.notices.GetNotice(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapNotice(notice))
}

// CreateNotice — POST /api/v1/notices.
// Доступ: NOTICE_EDIT.
func (h *APIHandler) CreateNotice(w http.ResponseWriter, r *http.Request) {
	operator := h.requireOperator(w, r)
	if operator == nil {
		return
	}

	var req noticeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" {
		apierrors.ValidationError(w, "title обязателен")
		return
	}

	notice, err := h.notices.CreateNotice(r.Context(), operator, service.NoticeParams{
		Title:   req.Title,
		Content: req.Content,
		UseFlag: req.UseFlag,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapNotice(notice))
}

// UpdateNotice — PUT /api/v1/notices/{id}.
// Доступ: NOTICE_EDIT.
func (h *APIHandler) UpdateNotice(w http.ResponseWriter, r *http.Request) {
	operator := h.requireOperator(w, r)
	if operator == nil {
		return
	}

	id, err := idFromURL(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный id")
		return
	}

	var req noticeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" {
		apierrors.ValidationError(w, "title обязателен")
		return
	}

	notice, err := h.notices.UpdateNotice(r.Context(), operator, id, service.NoticeParams{
		Title:   req.Title,
		Content: req.Content,
		UseFlag: req.UseFlag,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapNotice(notice))
}

// DeleteNotice — DELETE /api/v1/notices/{id}.
// Мягкое удаление. Доступ: NOTICE_EDIT.
func (h *APIHandler) DeleteNotice(w http.ResponseWriter, r *http.Request) {
	operator := h.requireOperator(w, r)
	if operator == nil {
		return
	}

	id, err := idFromURL(r)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный id")
		return
	}

	if err := h.notices.DeleteNotice(r.Context(), operator, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
