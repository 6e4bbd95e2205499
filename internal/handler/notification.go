package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-facility-reservation/internal/apperror"
	"github.com/iliyamo/campus-facility-reservation/internal/repository"
	"github.com/iliyamo/campus-facility-reservation/internal/response"
	"github.com/iliyamo/campus-facility-reservation/internal/validation"
)

// NotificationHandler serves the caller's notifications.
type NotificationHandler struct {
	Notifications *repository.NotificationRepo
}

func NewNotificationHandler(n *repository.NotificationRepo) *NotificationHandler {
	if n == nil {
		panic("nil repository passed to NewNotificationHandler")
	}
	return &NotificationHandler{Notifications: n}
}

type notificationList struct {
	Items       any `json:"items"`
	UnreadCount int `json:"unreadCount"`
}

func (h *NotificationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Notifications.FindByUserID(ctx, uid)
	if err != nil {
		return err
	}
	unread := 0
	for _, n := range items {
		if !n.IsRead {
			unread++
		}
	}
	return response.OK(c, notificationList{Items: items, UnreadCount: unread})
}

type markReadReq struct {
	NotificationID validation.FlexInt `json:"notificationId"`
}

// MarkRead accepts the id either as a path parameter or as
// {"notificationId": n} in the body.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	var id int64
	if c.Param("id") != "" {
		if id, err = paramID(c, "id"); err != nil {
			return err
		}
	} else {
		var req markReadReq
		if err := validation.Bind(c, &req); err != nil {
			return err
		}
		id = req.NotificationID.Int64()
	}
	if id <= 0 {
		return apperror.BadRequest("Notification ID is required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Notifications.MarkRead(ctx, uid, id); err != nil {
		return notFound(err, "Notification not found")
	}
	return response.OKMessage(c, nil, "Notification marked as read")
}

// UnreadCount returns {"unreadCount": n} for the badge in the client.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Notifications.UnreadCount(ctx, uid)
	if err != nil {
		return err
	}
	return response.OK(c, map[string]int{"unreadCount": n})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	n, err := h.Notifications.MarkAllRead(ctx, uid)
	if err != nil {
		return err
	}
	return response.OKMessage(c, map[string]int64{"updated": n}, "All notifications marked as read")
}

func (h *NotificationHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Notifications.DeleteForUser(ctx, uid, id); err != nil {
		return notFound(err, "Notification not found")
	}
	return response.OKMessage(c, nil, "Notification deleted")
}
