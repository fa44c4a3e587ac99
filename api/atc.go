package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/indigoair/indigo/internal/service/atc"
)

type ATCHandler struct {
	service atc.ATCUseCase
}

type clearanceRequest struct {
	FlightID      string               `json:"flightId" binding:"required"`
	ClearanceType domain.ClearanceType `json:"clearanceType" binding:"required"`
	Message       string               `json:"message"`
	Runway        string               `json:"runway"`
}

type delayRequest struct {
	Reason string `json:"reason" binding:"required"`
	// minutes
	Duration int `json:"duration" binding:"required"`
}

func NewATCHandler(service atc.ATCUseCase) *ATCHandler {
	return &ATCHandler{service: service}
}

// Register expects router to admit atc, supervisor and admin only.
func (h *ATCHandler) Register(router *gin.RouterGroup) {
	router.POST("/clearance", h.issue)
	router.GET("/clearances/:flightId", h.history)
	router.POST("/delay/:flightId", h.delay)
	router.GET("/stats", h.stats)
}

func (h *ATCHandler) issue(c *gin.Context) {
	var req clearanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	clearance, err := h.service.Issue(c.Request.Context(), atc.IssueInput{
		FlightID: req.FlightID,
		Type:     req.ClearanceType,
		Message:  req.Message,
		Runway:   req.Runway,
		ATCID:    principal(c).ID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, clearance)
}

func (h *ATCHandler) history(c *gin.Context) {
	history, err := h.service.History(c.Request.Context(), c.Param("flightId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *ATCHandler) delay(c *gin.Context) {
	var req delayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	flight, err := h.service.IssueDelay(c.Request.Context(), atc.DelayInput{
		FlightID: c.Param("flightId"),
		Reason:   req.Reason,
		Minutes:  req.Duration,
		ATCID:    principal(c).ID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *ATCHandler) stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
