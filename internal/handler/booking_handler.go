package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/plannivo/booking-engine/internal/domain"
	"github.com/plannivo/booking-engine/internal/dto"
	"github.com/plannivo/booking-engine/internal/repository"
	"github.com/plannivo/booking-engine/internal/service"
	"github.com/plannivo/booking-engine/pkg/response"
)

// BookingHandler exposes the booking lifecycle over HTTP
type BookingHandler struct {
	bookings *service.BookingService
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Create handles POST /bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	input, err := createInputFromRequest(&req, c)
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := h.bookings.CreateBooking(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, dto.CreateBookingResponse{
		Booking: dto.ToBookingResponse(result.Booking),
	})
}

// CreateGroup handles POST /bookings/group
func (h *BookingHandler) CreateGroup(c *gin.Context) {
	var req dto.CreateGroupBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	base, err := createInputFromRequest(&req.CreateBookingRequest, c)
	if err != nil {
		handleError(c, err)
		return
	}

	input := service.CreateGroupBookingInput{CreateBookingInput: base}
	for _, p := range req.Participants {
		input.Participants = append(input.Participants, service.ParticipantInput{
			UserID:     p.UserID,
			UsePackage: p.UsePackage,
		})
	}

	result, err := h.bookings.CreateGroupBooking(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, dto.CreateBookingResponse{
		Booking:      dto.ToBookingResponse(result.Booking),
		Participants: dto.ToParticipantResponses(result.Participants),
		Degradations: result.Degradations,
	})
}

// CreateFromCalendar handles POST /bookings/calendar
func (h *BookingHandler) CreateFromCalendar(c *gin.Context) {
	var req dto.CreateCalendarBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	date, err := time.Parse(dto.DateLayout, req.Date)
	if err != nil {
		handleError(c, domain.ErrInvalidDate)
		return
	}

	actorID, actorRole := actor(c)
	input := service.CreateCalendarBookingInput{
		CreateBookingInput: service.CreateBookingInput{
			Date:             date,
			StartHour:        decimal.NewFromFloat(req.StartHour),
			Duration:         decimal.NewFromFloat(req.Duration),
			InstructorUserID: req.InstructorUserID,
			ServiceID:        req.ServiceID,
			UsePackage:       req.UsePackage,
			Amount:           optionalDecimal(req.Amount),
			Notes:            req.Notes,
			ActorID:          actorID,
			ActorRole:        actorRole,
		},
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	result, err := h.bookings.CreateCalendarBooking(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, dto.CreateBookingResponse{
		Booking: dto.ToBookingResponse(result.Booking),
	})
}

// List handles GET /bookings
func (h *BookingHandler) List(c *gin.Context) {
	var query dto.ListBookingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	filter := repository.BookingFilter{
		InstructorUserID: query.InstructorUserID,
		StudentUserID:    query.StudentUserID,
		ServiceID:        query.ServiceID,
		Status:           query.Status,
		IncludeDeleted:   query.IncludeDeleted,
		Limit:            query.Limit,
		Offset:           query.Offset,
	}
	var err error
	if filter.Date, err = optionalDate(query.Date); err != nil {
		handleError(c, domain.ErrInvalidDate)
		return
	}
	if filter.DateFrom, err = optionalDate(query.DateFrom); err != nil {
		handleError(c, domain.ErrInvalidDate)
		return
	}
	if filter.DateTo, err = optionalDate(query.DateTo); err != nil {
		handleError(c, domain.ErrInvalidDate)
		return
	}

	bookings, err := h.bookings.ListBookings(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponses(bookings))
}

// Get handles GET /bookings/:id
func (h *BookingHandler) Get(c *gin.Context) {
	booking, participants, err := h.bookings.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.CreateBookingResponse{
		Booking:      dto.ToBookingResponse(booking),
		Participants: dto.ToParticipantResponses(participants),
	})
}

// Update handles PUT /bookings/:id
func (h *BookingHandler) Update(c *gin.Context) {
	var req dto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actorID, actorRole := actor(c)
	input := service.UpdateBookingInput{
		StartHour:        optionalDecimal(req.StartHour),
		Duration:         optionalDecimal(req.Duration),
		InstructorUserID: req.InstructorUserID,
		ServiceID:        req.ServiceID,
		Amount:           optionalDecimal(req.Amount),
		FinalAmount:      optionalDecimal(req.FinalAmount),
		Notes:            req.Notes,
		ActorID:          actorID,
		ActorRole:        actorRole,
	}
	if req.Date != nil {
		date, err := time.Parse(dto.DateLayout, *req.Date)
		if err != nil {
			handleError(c, domain.ErrInvalidDate)
			return
		}
		input.Date = &date
	}
	if req.Status != nil {
		status := domain.BookingStatus(*req.Status)
		input.Status = &status
	}

	booking, err := h.bookings.UpdateBooking(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponse(booking))
}

// UpdateStatus handles PATCH /bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actorID, actorRole := actor(c)
	booking, err := h.bookings.ChangeStatus(c.Request.Context(), c.Param("id"),
		domain.BookingStatus(req.Status), actorID, actorRole)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponse(booking))
}

// Cancel handles POST /bookings/:id/cancel
func (h *BookingHandler) Cancel(c *gin.Context) {
	actorID, _ := actor(c)
	booking, err := h.bookings.CancelBooking(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponse(booking))
}

// Delete handles DELETE /bookings/:id
func (h *BookingHandler) Delete(c *gin.Context) {
	var req dto.DeleteBookingRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	actorID, _ := actor(c)
	result, err := h.bookings.DeleteBooking(c.Request.Context(), c.Param("id"), actorID, req.Reason)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.DeleteBookingResponse{
		Booking:      dto.ToBookingResponse(result.Booking),
		RefundType:   string(result.Audit.RefundType),
		RefundAmount: result.Audit.RefundAmount,
	})
}

// Restore handles POST /bookings/:id/restore
func (h *BookingHandler) Restore(c *gin.Context) {
	actorID, _ := actor(c)
	booking, err := h.bookings.RestoreBooking(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponse(booking))
}

// RestoreLatest handles POST /bookings/restore-latest
func (h *BookingHandler) RestoreLatest(c *gin.Context) {
	actorID, _ := actor(c)
	booking, err := h.bookings.RestoreBooking(c.Request.Context(), "", actorID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, dto.ToBookingResponse(booking))
}

func createInputFromRequest(req *dto.CreateBookingRequest, c *gin.Context) (service.CreateBookingInput, error) {
	date, err := req.ParseDate()
	if err != nil {
		return service.CreateBookingInput{}, domain.ErrInvalidDate
	}

	actorID, actorRole := actor(c)
	return service.CreateBookingInput{
		Date:             date,
		StartHour:        decimal.NewFromFloat(req.StartHour),
		Duration:         decimal.NewFromFloat(req.Duration),
		InstructorUserID: req.InstructorUserID,
		StudentUserID:    req.StudentUserID,
		ServiceID:        req.ServiceID,
		UsePackage:       req.UsePackage,
		Amount:           optionalDecimal(req.Amount),
		Notes:            req.Notes,
		ActorID:          actorID,
		ActorRole:        actorRole,
	}, nil
}

func optionalDecimal(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
