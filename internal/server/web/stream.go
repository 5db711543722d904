package web

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
)

// streamTasks is the live-update endpoint. It speaks server-sent events:
// the full current collection is sent on connect, then again after every
// mutation of the user's tasks. Clients replace their local state with each
// event rather than applying deltas.
func (h *Handler) streamTasks(c *gin.Context) {
	uid := userID(c)

	ch, cancel, err := h.hub.Subscribe(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeaderNow()

	for {
		select {
		case snapshot, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(snapshot)
			if err != nil {
				h.logger.Error(c.Request.Context(), "snapshot encode failed", "userID", uid, "error", err)
				return
			}
			c.SSEvent("snapshot", string(payload))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}
