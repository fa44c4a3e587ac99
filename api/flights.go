package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/indigoair/indigo/internal/auth"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/indigoair/indigo/internal/service/flights"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type createFlightRequest struct {
	FlightNumber  string       `json:"flightNumber" binding:"required"`
	Departure     string       `json:"departure" binding:"required"`
	Arrival       string       `json:"arrival" binding:"required"`
	Aircraft      string       `json:"aircraft" binding:"required"`
	DepartureTime time.Time    `json:"departureTime" binding:"required"`
	ArrivalTime   time.Time    `json:"arrivalTime" binding:"required"`
	Price         domain.Fares `json:"price"`
	Gates         domain.Gates `json:"gates"`
}

type createFlightResponse struct {
	Flight   *domain.Flight         `json:"flight"`
	Schedule *domain.FlightSchedule `json:"schedule"`
}

type updateStatusRequest struct {
	Status domain.FlightStatus `json:"status" binding:"required"`
	Reason string              `json:"reason"`
}

type assignCrewRequest struct {
	Captain      string   `json:"captain" binding:"required"`
	FirstOfficer string   `json:"firstOfficer" binding:"required"`
	CabinCrew    []string `json:"cabinCrew"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup, authn gin.HandlerFunc) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/schedule", h.schedule)

	router.POST("", authn, auth.RequireRole(domain.RoleAdmin, domain.RoleSupervisor), h.create)
	router.PATCH("/:id/status", authn, auth.RequireRole(domain.RoleATC, domain.RoleAdmin, domain.RoleSupervisor), h.updateStatus)
	router.POST("/:id/crew", authn, auth.RequireRole(domain.RoleAdmin, domain.RoleSupervisor), h.assignCrew)
	router.GET("/:id/logs", authn, auth.RequireRole(domain.RoleAdmin, domain.RoleSupervisor, domain.RoleATC), h.logs)
}

func (h *FlightHandler) list(c *gin.Context) {
	filter := flights.FlightFilter{
		Status:      domain.FlightStatus(c.Query("status")),
		Origin:      c.Query("departure"),
		Destination: c.Query("arrival"),
		Class:       domain.FareClass(c.Query("class")),
	}
	var err error
	if filter.Date, err = queryDate(c, "date"); err != nil {
		badRequest(c, err)
		return
	}
	for key, dst := range map[string]*int{"passengers": &filter.Passengers, "page": &filter.Page, "limit": &filter.Limit} {
		if *dst, err = queryInt(c, key); err != nil {
			badRequest(c, err)
			return
		}
	}

	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) schedule(c *gin.Context) {
	schedule, err := h.service.Schedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req createFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	flight, schedule, err := h.service.Create(c.Request.Context(), flights.CreateFlightInput{
		FlightNumber:  req.FlightNumber,
		Origin:        req.Departure,
		Destination:   req.Arrival,
		Aircraft:      req.Aircraft,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		Price:         req.Price,
		Gates:         req.Gates,
	}, principal(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createFlightResponse{Flight: flight, Schedule: schedule})
}

func (h *FlightHandler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	flight, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Reason, principal(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) assignCrew(c *gin.Context) {
	var req assignCrewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	crew := domain.Crew{Captain: req.Captain, FirstOfficer: req.FirstOfficer, CabinCrew: req.CabinCrew}
	flight, err := h.service.AssignCrew(c.Request.Context(), c.Param("id"), crew, principal(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) logs(c *gin.Context) {
	logs, err := h.service.Logs(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
