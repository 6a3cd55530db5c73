package transport

import (
	"net/http"
	"strconv"

	"github.com/gilson954/sistema-rifa-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	sweeper service.SweeperService
	oplog   service.OperationLogger
}

func NewAdminHandler(sweeper service.SweeperService, oplog service.OperationLogger) *AdminHandler {
	return &AdminHandler{
		sweeper: sweeper,
		oplog:   oplog,
	}
}

// Sweep is triggered by an external scheduler.
func (h *AdminHandler) Sweep(c *gin.Context) {
	summary, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	service.LogSummary(summary)

	c.JSON(http.StatusOK, summary)
}

func (h *AdminHandler) ListOperations(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "invalid limit")
			return
		}
		limit = n
	}

	logs, err := h.oplog.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"operations": logs,
		"count":      len(logs),
	})
}
