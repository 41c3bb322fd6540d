package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type guestRequest struct {
	FirstName string                  `json:"first_name"`
	LastName  string                  `json:"last_name"`
	Email     string                  `json:"email"`
	Phone     string                  `json:"phone"`
	Type      models.GuestType        `json:"type"`
	Details   *models.PersonalDetails `json:"personal_details"`
}

func (g *guestRequest) input() *domain.GuestInput {
	if g == nil {
		return nil
	}
	return &domain.GuestInput{
		FirstName: g.FirstName,
		LastName:  g.LastName,
		Email:     g.Email,
		Phone:     g.Phone,
		Type:      g.Type,
		Details:   g.Details,
	}
}

type createReservationRequest struct {
	ReservationItemID int64         `json:"reservation_item_id" binding:"required"`
	CheckIn           string        `json:"check_in" binding:"required"`
	CheckOut          string        `json:"check_out" binding:"required"`
	GuestID           *int64        `json:"guest_id"`
	Guest             *guestRequest `json:"guest"`
	RoomID            *int64        `json:"room_id"`
	InvoiceID         *int64        `json:"invoice_id"`
	Notes             string        `json:"notes"`
}

type checkInRequest struct {
	RoomID  int64         `json:"room_id" binding:"required"`
	GuestID *int64        `json:"guest_id"`
	Guest   *guestRequest `json:"guest"`
}

type finalBillRequest struct {
	CheckIn  *string `json:"check_in"`
	CheckOut *string `json:"check_out"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type reservationSpecRequest struct {
	ReservationItemID int64  `json:"reservation_item_id" binding:"required"`
	CheckIn           string `json:"check_in" binding:"required"`
	CheckOut          string `json:"check_out" binding:"required"`
	RoomID            *int64 `json:"room_id"`
	Notes             string `json:"notes"`
}

type createInvoiceRequest struct {
	GuestID      *int64                   `json:"guest_id"`
	Guest        *guestRequest            `json:"guest"`
	Reservations []reservationSpecRequest `json:"reservations" binding:"dive"`
}

type orderLineRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type createOrderRequest struct {
	Lines           []orderLineRequest `json:"lines"`
	HappyHour       bool               `json:"happy_hour"`
	DiscountPercent decimal.Decimal    `json:"discount_percent"`
	ReservationID   *int64             `json:"reservation_id"`
	GuestID         *int64             `json:"guest_id"`
	InvoiceID       *int64             `json:"invoice_id"`
}

type taskUpdateRequest struct {
	Status     *models.TaskStatus `json:"status"`
	AssignedTo *string            `json:"assigned_to"`
	Priority   *int               `json:"priority"`
	DueAt      *time.Time         `json:"due_at"`
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, domain.Invalid("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func bind(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return domain.Invalid("invalid request body: %v", err)
	}
	return nil
}

// reservations

func (s *HTTPServer) createReservation(c *gin.Context) {
	var req createReservationRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	in, err := req.input()
	if err != nil {
		s.fail(c, err)
		return
	}
	r, err := s.deps.Reservations.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (r createReservationRequest) input() (domain.CreateReservationInput, error) {
	checkIn, err := parseDate("check_in", r.CheckIn)
	if err != nil {
		return domain.CreateReservationInput{}, err
	}
	checkOut, err := parseDate("check_out", r.CheckOut)
	if err != nil {
		return domain.CreateReservationInput{}, err
	}
	return domain.CreateReservationInput{
		ReservationItemID: r.ReservationItemID,
		CheckIn:           checkIn,
		CheckOut:          checkOut,
		GuestID:           r.GuestID,
		Guest:             r.Guest.input(),
		RoomID:            r.RoomID,
		InvoiceID:         r.InvoiceID,
		Notes:             r.Notes,
	}, nil
}

func (s *HTTPServer) listReservations(c *gin.Context) {
	list, err := s.deps.Reservations.GetAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": list})
}

func (s *HTTPServer) activeReservations(c *gin.Context) {
	list, err := s.deps.Reservations.GetActiveReservations(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": list})
}

func (s *HTTPServer) getReservation(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	r, err := s.deps.Reservations.GetByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *HTTPServer) checkIn(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req checkInRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	r, err := s.deps.Reservations.CheckIn(c.Request.Context(), domain.CheckInInput{
		ReservationID: id,
		RoomID:        req.RoomID,
		GuestID:       req.GuestID,
		Guest:         req.Guest.input(),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *HTTPServer) checkOut(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	r, err := s.deps.Reservations.CheckOut(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *HTTPServer) finalBill(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req finalBillRequest
	if c.Request.ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			s.fail(c, err)
			return
		}
	}
	in := domain.FinalBillInput{ReservationID: id}
	if req.CheckIn != nil {
		t, err := parseDate("check_in", *req.CheckIn)
		if err != nil {
			s.fail(c, err)
			return
		}
		in.CheckIn = &t
	}
	if req.CheckOut != nil {
		t, err := parseDate("check_out", *req.CheckOut)
		if err != nil {
			s.fail(c, err)
			return
		}
		in.CheckOut = &t
	}
	r, err := s.deps.Reservations.CalculateSubTotal(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *HTTPServer) cancelReservation(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	r, err := s.deps.Reservations.Cancel(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *HTTPServer) reservationPaymentStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	r, err := s.deps.Reservations.UpdatePaymentStatus(c.Request.Context(), id, models.PaymentStatus(req.Status))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// invoices

func (s *HTTPServer) createInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	in := domain.CreateInvoiceInput{GuestID: req.GuestID, Guest: req.Guest.input()}
	for i, spec := range req.Reservations {
		checkIn, err := parseDate("reservations["+strconv.Itoa(i)+"].check_in", spec.CheckIn)
		if err != nil {
			s.fail(c, err)
			return
		}
		checkOut, err := parseDate("reservations["+strconv.Itoa(i)+"].check_out", spec.CheckOut)
		if err != nil {
			s.fail(c, err)
			return
		}
		in.Reservations = append(in.Reservations, domain.ReservationSpec{
			ReservationItemID: spec.ReservationItemID,
			CheckIn:           checkIn,
			CheckOut:          checkOut,
			RoomID:            spec.RoomID,
			Notes:             spec.Notes,
		})
	}

	inv, err := s.deps.Invoices.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (s *HTTPServer) openInvoices(c *gin.Context) {
	list, err := s.deps.Invoices.GetOpen(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": list})
}

func (s *HTTPServer) getInvoice(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	inv, err := s.deps.Invoices.GetByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *HTTPServer) invoiceStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	inv, err := s.deps.Invoices.UpdateStatus(c.Request.Context(), id, models.PaymentStatus(req.Status))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *HTTPServer) recomputeInvoice(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	inv, err := s.deps.Invoices.Recompute(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *HTTPServer) invoiceStatement(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	f, err := s.deps.Reports.Statement(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	writeWorkbook(c, f, "invoice_"+strconv.FormatInt(id, 10)+".xlsx")
}

// orders

func (s *HTTPServer) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	in := domain.CreateOrderInput{
		HappyHour:       req.HappyHour,
		DiscountPercent: req.DiscountPercent,
		ReservationID:   req.ReservationID,
		GuestID:         req.GuestID,
		InvoiceID:       req.InvoiceID,
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, domain.OrderLineInput{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	order, err := s.deps.Orders.Create(c.Request.Context(), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *HTTPServer) listOrders(c *gin.Context) {
	f, err := orderFilter(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	list, err := s.deps.Orders.List(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func orderFilter(c *gin.Context) (domain.OrderFilter, error) {
	var f domain.OrderFilter
	var err error
	if v := c.Query("from"); v != "" {
		if f.From, err = parseDate("from", v); err != nil {
			return f, err
		}
	}
	if v := c.Query("to"); v != "" {
		if f.To, err = parseDate("to", v); err != nil {
			return f, err
		}
	}
	if v := c.Query("status"); v != "" {
		f.Status = models.PaymentStatus(strings.ToUpper(v))
		if !f.Status.Valid() {
			return f, domain.Invalid("unknown payment status %q", v)
		}
	}
	if v := c.Query("invoice_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, domain.Invalid("invalid invoice_id %q", v)
		}
		f.InvoiceID = &id
	}
	return f, nil
}

func (s *HTTPServer) getOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	order, err := s.deps.Orders.GetByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *HTTPServer) orderStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	order, err := s.deps.Orders.UpdateStatus(c.Request.Context(), id, models.PaymentStatus(req.Status))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// guests

func (s *HTTPServer) listGuests(c *gin.Context) {
	list, err := s.deps.Guests.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guests": list})
}

func (s *HTTPServer) createGuest(c *gin.Context) {
	var req guestRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	g, err := s.deps.Guests.Create(c.Request.Context(), *req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (s *HTTPServer) getGuest(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	g, err := s.deps.Guests.GetByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *HTTPServer) updateGuest(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req guestRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	g, err := s.deps.Guests.Update(c.Request.Context(), id, *req.input())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// items

func (s *HTTPServer) listItems(c *gin.Context) {
	list, err := s.deps.Catalog.ListItems(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

func (s *HTTPServer) createItem(c *gin.Context) {
	var item models.Item
	if err := bind(c, &item); err != nil {
		s.fail(c, err)
		return
	}
	item.ID = 0
	if err := s.deps.Catalog.CreateItem(c.Request.Context(), &item); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *HTTPServer) getItem(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	item, err := s.deps.Catalog.GetItem(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (s *HTTPServer) updateItem(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var item models.Item
	if err := bind(c, &item); err != nil {
		s.fail(c, err)
		return
	}
	item.ID = id
	if err := s.deps.Catalog.UpdateItem(c.Request.Context(), &item); err != nil {
		s.fail(c, err)
		return
	}
	updated, err := s.deps.Catalog.GetItem(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// tasks

func (s *HTTPServer) listTasks(c *gin.Context) {
	status := models.TaskStatus(strings.ToUpper(c.Query("status")))
	list, err := s.deps.Tasks.List(c.Request.Context(), status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": list})
}

func (s *HTTPServer) createTask(c *gin.Context) {
	var task models.Task
	if err := bind(c, &task); err != nil {
		s.fail(c, err)
		return
	}
	task.ID = 0
	task.CompletedAt = nil
	if err := s.deps.Tasks.Create(c.Request.Context(), &task); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *HTTPServer) updateTask(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req taskUpdateRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	task, err := s.deps.Tasks.Update(c.Request.Context(), id, domain.TaskUpdate{
		Status:     req.Status,
		AssignedTo: req.AssignedTo,
		Priority:   req.Priority,
		DueAt:      req.DueAt,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// rooms

func (s *HTTPServer) listRooms(c *gin.Context) {
	list, err := s.deps.Rooms.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": list})
}

func (s *HTTPServer) createRoom(c *gin.Context) {
	var room models.Room
	if err := bind(c, &room); err != nil {
		s.fail(c, err)
		return
	}
	room.ID = 0
	if err := s.deps.Rooms.Create(c.Request.Context(), &room); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (s *HTTPServer) getRoom(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	room, err := s.deps.Rooms.GetByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *HTTPServer) roomStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	room, err := s.deps.Rooms.UpdateStatus(c.Request.Context(), id, models.RoomStatus(req.Status))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *HTTPServer) roomReservations(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	list, err := s.deps.Reservations.GetRoomReservations(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": list})
}

// rate products

func (s *HTTPServer) listRateProducts(c *gin.Context) {
	list, err := s.deps.Catalog.ListRateProducts(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation_items": list})
}

func (s *HTTPServer) createRateProduct(c *gin.Context) {
	var item models.ReservationItem
	if err := bind(c, &item); err != nil {
		s.fail(c, err)
		return
	}
	item.ID = 0
	if err := s.deps.Catalog.CreateRateProduct(c.Request.Context(), &item); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// reports

func (s *HTTPServer) ordersReport(c *gin.Context) {
	from, err := parseDate("from", c.Query("from"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var to time.Time
	if v := c.Query("to"); v != "" {
		if to, err = parseDate("to", v); err != nil {
			s.fail(c, err)
			return
		}
		if !to.After(from) {
			s.fail(c, domain.Invalid("to must be after from"))
			return
		}
	}
	f, err := s.deps.Reports.Orders(c.Request.Context(), from, to)
	if err != nil {
		s.fail(c, err)
		return
	}
	writeWorkbook(c, f, "orders_"+from.Format(dateLayout)+".xlsx")
}
