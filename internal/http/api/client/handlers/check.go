package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hexforge/hwidgate/internal/verify"
)

// CheckHandler serves the client polling endpoint.
type CheckHandler struct {
	svc *verify.Service
}

// NewCheckHandler constructs a CheckHandler.
func NewCheckHandler(svc *verify.Service) *CheckHandler {
	return &CheckHandler{svc: svc}
}

// Check reports access status for a hardware ID, issuing a verification code
// when the machine is not yet verified.
func (h *CheckHandler) Check(c *gin.Context) {
	hwid := strings.TrimSpace(c.Query("hwid"))
	if hwid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": verify.StatusError, "error": "missing hwid"})
		return
	}

	result, errCheck := h.svc.Check(c.Request.Context(), hwid)
	if errCheck != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": verify.StatusError, "error": "lookup failed"})
		return
	}

	resp := gin.H{"status": result.Status}
	if result.Code != "" {
		resp["code"] = result.Code
	}
	c.JSON(http.StatusOK, resp)
}
