package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/indigoair/indigo/internal/service/booking"
)

type BookingHandler struct {
	service     booking.BookingUseCase
	defaultHold time.Duration
}

type holdSeatRequest struct {
	FlightID   string `json:"flightId" binding:"required"`
	SeatNumber string `json:"seatNumber" binding:"required"`
	// minutes
	HoldDuration int `json:"holdDuration"`
}

type releaseSeatRequest struct {
	FlightID   string `json:"flightId" binding:"required"`
	SeatNumber string `json:"seatNumber" binding:"required"`
}

type createBookingRequest struct {
	FlightID        string           `json:"flightId" binding:"required"`
	SeatNumber      string           `json:"seatNumber" binding:"required"`
	SeatClass       domain.FareClass `json:"seatClass" binding:"required"`
	PassengerName   string           `json:"passengerName"`
	PassengerEmail  string           `json:"passengerEmail"`
	PassengerPhone  string           `json:"passengerPhone"`
	SpecialRequests []string         `json:"specialRequests"`
}

func NewBookingHandler(service booking.BookingUseCase, defaultHold time.Duration) *BookingHandler {
	return &BookingHandler{service: service, defaultHold: defaultHold}
}

// Register expects router to be authenticated already.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/hold-seat", h.hold)
	router.DELETE("/hold-seat", h.release)
	router.POST("", h.create)
	router.GET("/user/:userId", h.listForUser)
	router.GET("/:id", h.get)
	router.POST("/:id/cancel", h.cancel)
	router.GET("/:id/receipt", h.receipt)
}

func (h *BookingHandler) hold(c *gin.Context) {
	var req holdSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	duration := h.defaultHold
	if req.HoldDuration != 0 {
		duration = time.Duration(req.HoldDuration) * time.Minute
	}

	hold, err := h.service.HoldSeat(c.Request.Context(), booking.HoldInput{
		FlightID:    req.FlightID,
		SeatNumber:  req.SeatNumber,
		PrincipalID: principal(c).ID,
		Duration:    duration,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, hold)
}

func (h *BookingHandler) release(c *gin.Context) {
	var req releaseSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	released, err := h.service.ReleaseSeat(c.Request.Context(), req.FlightID, req.SeatNumber, principal(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released})
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.service.ConfirmBooking(c.Request.Context(), booking.ConfirmInput{
		FlightID:    req.FlightID,
		SeatNumber:  req.SeatNumber,
		PrincipalID: principal(c).ID,
		FareClass:   req.SeatClass,
		Passenger: domain.Passenger{
			Name:            req.PassengerName,
			Email:           req.PassengerEmail,
			Phone:           req.PassengerPhone,
			SpecialRequests: req.SpecialRequests,
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) listForUser(c *gin.Context) {
	caller := principal(c)
	userID := c.Param("userId")
	if userID != caller.ID && !caller.IsStaff() {
		writeError(c, domain.ErrNotOwner)
		return
	}

	filter := booking.BookingFilter{
		PrincipalID: userID,
		Status:      domain.BookingStatus(c.Query("status")),
	}
	var err error
	if filter.From, err = queryDate(c, "startDate"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.To, err = queryDate(c, "endDate"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.Page, err = queryInt(c, "page"); err != nil {
		badRequest(c, err)
		return
	}
	if filter.Limit, err = queryInt(c, "limit"); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"), principal(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) receipt(c *gin.Context) {
	r, err := h.service.Receipt(c.Request.Context(), c.Param("id"), principal(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
