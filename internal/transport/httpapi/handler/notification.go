package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/amoralabs/amora/internal/notification"
	"github.com/amoralabs/amora/internal/transport/httpapi/middleware"
)

// NotificationService defines the operations needed by NotificationHandler
type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*notification.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	svc NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List returns the user's notifications (GET /notifications)
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, err := h.svc.List(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]interface{}{"notifications": items}, http.StatusOK)
}

// UnreadCount returns the unread badge counter (GET /notifications/unread)
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	count, err := h.svc.UnreadCount(r.Context(), userID)
	if err != nil {
		respondError(w, "failed to count notifications", http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]int{"unread": count}, http.StatusOK)
}

// MarkRead marks one notification as read (POST /notifications/{id}/read)
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, "invalid notification ID", http.StatusBadRequest)
		return
	}

	if err := h.svc.MarkRead(r.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, notification.ErrNotFound):
			respondError(w, "notification not found", http.StatusNotFound)
		case errors.Is(err, notification.ErrUnauthorized):
			respondError(w, "notification belongs to another user", http.StatusForbidden)
		default:
			respondError(w, "failed to mark notification read", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead marks every notification as read (POST /notifications/read-all)
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.svc.MarkAllRead(r.Context(), userID); err != nil {
		respondError(w, "failed to mark notifications read", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
