package admin

import (
	"context"
	"net/http"

	"travelhub/internal/catalog"
	"travelhub/internal/coupons"
	"travelhub/internal/payments"
	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/session"
	"travelhub/internal/shared/utils/response"
	"travelhub/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentReader interface {
	Get(ctx context.Context, id uuid.UUID) (*payments.Payment, error)
	List(ctx context.Context, q payments.ListQuery) (*payments.PaymentList, error)
}

// Controller defines the back-office endpoints.
type Controller interface {
	GetStats(c *gin.Context)

	ListUsers(c *gin.Context)
	GetUser(c *gin.Context)
	UpdateUserRole(c *gin.Context)
	DeleteUser(c *gin.Context)

	ListPayments(c *gin.Context)
	GetPayment(c *gin.Context)
	RefundPayment(c *gin.Context)

	CreateEvent(c *gin.Context)
	UpdateEvent(c *gin.Context)
	DeleteEvent(c *gin.Context)

	ListCoupons(c *gin.Context)
	GetCoupon(c *gin.Context)
	CreateCoupon(c *gin.Context)
	UpdateCoupon(c *gin.Context)
	DeleteCoupon(c *gin.Context)
}

type controller struct {
	service  Service
	users    users.Service
	payments PaymentReader
	catalog  catalog.Service
	coupons  coupons.Service
}

func NewController(service Service, usersSvc users.Service, paymentsSvc PaymentReader, catalogSvc catalog.Service, couponsSvc coupons.Service) Controller {
	return &controller{
		service:  service,
		users:    usersSvc,
		payments: paymentsSvc,
		catalog:  catalogSvc,
		coupons:  couponsSvc,
	}
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, apperrors.Validation("id", "must be a valid id"))
		return uuid.Nil, false
	}
	return id, true
}

// actor returns the admin's session; the route guards guarantee one is present.
func actor(c *gin.Context) (*session.Session, bool) {
	s, err := session.Require(session.FromGin(c))
	if err != nil {
		response.RespondError(c, err)
		return nil, false
	}
	return s, true
}

// GetStats godoc
// @Summary      Dashboard statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.StandardApiResponse
// @Router       /admin/stats [get]
func (ctrl *controller) GetStats(c *gin.Context) {
	stats, err := ctrl.service.Stats(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Statistics retrieved successfully", stats)
}

// Users

// ListUsers godoc
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page    query  int     false  "Page"
// @Param        limit   query  int     false  "Page size"
// @Param        search  query  string  false  "Email or name"
// @Param        role    query  string  false  "user or admin"
// @Success      200  {object}  response.StandardApiResponse
// @Router       /admin/users [get]
func (ctrl *controller) ListUsers(c *gin.Context) {
	var q users.UserListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, apperrors.Validation("query", err.Error()))
		return
	}
	list, err := ctrl.users.List(c.Request.Context(), q)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Users retrieved successfully", list)
}

func (ctrl *controller) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := ctrl.users.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "User retrieved successfully", u)
}

// UpdateUserRole godoc
// @Summary      Change a user's role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                   true  "User id"
// @Param        request  body  users.UpdateRoleRequest  true  "New role"
// @Success      200  {object}  response.StandardApiResponse
// @Router       /admin/users/{id}/role [put]
func (ctrl *controller) UpdateUserRole(c *gin.Context) {
	admin, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req users.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperrors.Validation("role", err.Error()))
		return
	}
	u, err := ctrl.users.SetRole(c.Request.Context(), admin.UserID, id, req.Role)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Role updated successfully", u)
}

func (ctrl *controller) DeleteUser(c *gin.Context) {
	admin, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.users.Delete(c.Request.Context(), admin.UserID, id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "User deleted successfully", nil)
}

// Payments

// ListPayments godoc
// @Summary      List payments
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "pending, completed, failed or refunded"
// @Param        method  query  string  false  "Payment method"
// @Success      200  {object}  response.StandardApiResponse
// @Router       /admin/payments [get]
func (ctrl *controller) ListPayments(c *gin.Context) {
	var q payments.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, apperrors.Validation("query", err.Error()))
		return
	}
	list, err := ctrl.payments.List(c.Request.Context(), q)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Payments retrieved successfully", list)
}

func (ctrl *controller) GetPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := ctrl.payments.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Payment retrieved successfully", p)
}

// RefundPayment godoc
// @Summary      Refund a payment
// @Description  Marks a completed payment refunded and cancels its booking.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Payment id"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      400  {object}  response.StandardApiResponse
// @Router       /admin/payments/{id}/refund [post]
func (ctrl *controller) RefundPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	result, err := ctrl.service.Refund(c.Request.Context(), session.FromGin(c), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Payment refunded successfully", result)
}

// Events

// CreateEvent godoc
// @Summary      Create an event with its seat map
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  catalog.CreateEventRequest  true  "Event"
// @Success      201  {object}  response.StandardApiResponse
// @Router       /admin/events [post]
func (ctrl *controller) CreateEvent(c *gin.Context) {
	admin, ok := actor(c)
	if !ok {
		return
	}
	var req catalog.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperrors.Validation("body", err.Error()))
		return
	}
	e, err := ctrl.catalog.CreateEvent(c.Request.Context(), admin.UserID, &req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusCreated, "Event created successfully", e)
}

func (ctrl *controller) UpdateEvent(c *gin.Context) {
	admin, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req catalog.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperrors.Validation("body", err.Error()))
		return
	}
	e, err := ctrl.catalog.UpdateEvent(c.Request.Context(), admin.UserID, id, &req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Event updated successfully", e)
}

func (ctrl *controller) DeleteEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.catalog.DeleteEvent(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Event deleted successfully", nil)
}

// Coupons

func (ctrl *controller) ListCoupons(c *gin.Context) {
	var q coupons.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.RespondError(c, apperrors.Validation("query", err.Error()))
		return
	}
	list, err := ctrl.coupons.List(c.Request.Context(), q)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Coupons retrieved successfully", list)
}

func (ctrl *controller) GetCoupon(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cp, err := ctrl.coupons.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Coupon retrieved successfully", cp)
}

// CreateCoupon godoc
// @Summary      Create a coupon
// @Description  Exactly one of discount_percentage (1-100) or discount_amount (>0) must be set.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  coupons.CouponRequest  true  "Coupon"
// @Success      201  {object}  response.StandardApiResponse
// @Router       /admin/coupons [post]
func (ctrl *controller) CreateCoupon(c *gin.Context) {
	var req coupons.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperrors.Validation("body", err.Error()))
		return
	}
	cp, err := ctrl.coupons.Create(c.Request.Context(), &req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusCreated, "Coupon created successfully", cp)
}

func (ctrl *controller) UpdateCoupon(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req coupons.CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apperrors.Validation("body", err.Error()))
		return
	}
	cp, err := ctrl.coupons.Update(c.Request.Context(), id, &req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Coupon updated successfully", cp)
}

func (ctrl *controller) DeleteCoupon(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.coupons.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Coupon deleted successfully", nil)
}
