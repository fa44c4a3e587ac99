package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/indigoair/indigo/internal/auth"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/indigoair/indigo/internal/service/pilot"
)

type PilotHandler struct {
	service pilot.PilotUseCase
}

type addLogRequest struct {
	FlightNumber string  `json:"flightNumber" binding:"required"`
	Route        string  `json:"route"`
	Aircraft     string  `json:"aircraft"`
	Miles        float64 `json:"miles"`
	// hours
	Duration float64 `json:"duration"`
	Remarks  string  `json:"remarks"`
}

type decisionRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

func NewPilotHandler(service pilot.PilotUseCase) *PilotHandler {
	return &PilotHandler{service: service}
}

// Register expects router to be authenticated already.
func (h *PilotHandler) Register(router *gin.RouterGroup) {
	flightCrew := auth.RequireRole(domain.RolePilot, domain.RoleFirstOfficer)

	router.GET("/profile/:pilotId", h.profile)
	router.GET("/logs/:pilotId", h.logs)
	router.GET("/upcoming-flights/:pilotId", h.upcoming)
	router.POST("/logs", flightCrew, h.addLog)
	router.POST("/rank-up", flightCrew, h.requestRankUp)
	router.POST("/rank-up/:id/decision", auth.RequireRole(domain.RoleSupervisor, domain.RoleAdmin), h.decide)
}

func (h *PilotHandler) profile(c *gin.Context) {
	stats, err := h.service.Profile(c.Request.Context(), c.Param("pilotId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *PilotHandler) logs(c *gin.Context) {
	logs, err := h.service.Logs(c.Request.Context(), c.Param("pilotId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *PilotHandler) upcoming(c *gin.Context) {
	list, err := h.service.UpcomingFlights(c.Request.Context(), c.Param("pilotId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PilotHandler) addLog(c *gin.Context) {
	var req addLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entry, err := h.service.AddLog(c.Request.Context(), pilot.LogInput{
		PilotID:      principal(c).ID,
		FlightNumber: req.FlightNumber,
		Route:        req.Route,
		Aircraft:     req.Aircraft,
		Miles:        req.Miles,
		Hours:        req.Duration,
		Remarks:      req.Remarks,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *PilotHandler) requestRankUp(c *gin.Context) {
	req, err := h.service.RequestRankUp(c.Request.Context(), principal(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *PilotHandler) decide(c *gin.Context) {
	var body decisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	req, err := h.service.DecideRankUp(c.Request.Context(), c.Param("id"), *body.Approve, principal(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
