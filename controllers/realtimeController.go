package controllers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"kd-resto/middlewares"
	"kd-resto/models"
	"kd-resto/realtime"
)

const heartbeatInterval = 25 * time.Second

type RealtimeController struct {
	hub *realtime.Hub
}

func NewRealtimeController(hub *realtime.Hub) *RealtimeController {
	return &RealtimeController{hub: hub}
}

// roomAllowed gates the staff and admin rooms; order and customer rooms are
// open to anyone who knows the name.
func roomAllowed(room, role string) bool {
	switch room {
	case realtime.RoomAdmin:
		return role == models.RoleAdmin
	case realtime.RoomStaff:
		return role == models.RoleAdmin || role == models.RoleStaff
	}
	return strings.HasPrefix(room, "order-") || strings.HasPrefix(room, "customer-")
}

// Stream pushes room events to the client as server-sent events.
func (ctl *RealtimeController) Stream(c *gin.Context) {
	room := c.Param("room")
	if !roomAllowed(room, c.GetString(middlewares.ContextRole)) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Access to room denied"})
		return
	}

	events, unsubscribe := ctl.hub.Subscribe(room)
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.SSEvent("joined", gin.H{"room": room})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case evt, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(evt.Name, evt)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
