package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/rentflow/internal/http/middleware"
	"github.com/nurpe/rentflow/internal/model"
	"github.com/nurpe/rentflow/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Services struct {
	Users         *service.UserService
	Properties    *service.PropertyService
	Reviews       *service.ReviewService
	Rentals       *service.RentalService
	Agreements    *service.AgreementService
	Payments      *service.PaymentService
	Notifications *service.NotificationService
}

type Handler struct {
	users         *service.UserService
	properties    *service.PropertyService
	reviews       *service.ReviewService
	rentals       *service.RentalService
	agreements    *service.AgreementService
	payments      *service.PaymentService
	notifications *service.NotificationService
	log           zerolog.Logger
}

func NewHandler(services Services, log zerolog.Logger) *Handler {
	return &Handler{
		users:         services.Users,
		properties:    services.Properties,
		reviews:       services.Reviews,
		rentals:       services.Rentals,
		agreements:    services.Agreements,
		payments:      services.Payments,
		notifications: services.Notifications,
		log:           log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.POST("/webhooks/stripe", h.stripeWebhook)

	protected := router.Group("/")
	protected.Use(authMiddleware)

	tenant := middleware.RequireRole(model.RoleTenant)
	owner := middleware.RequireRole(model.RoleOwner)
	admin := middleware.RequireRole(model.RoleAdmin)

	protected.POST("/users", admin, h.createUser)
	protected.GET("/users", admin, h.listUsers)
	protected.GET("/users/:id", h.getUser)
	protected.DELETE("/users/:id", admin, h.deleteUser)

	protected.POST("/properties", owner, h.createProperty)
	protected.GET("/properties", owner, h.listProperties)
	protected.GET("/properties/:id", h.getProperty)

	protected.POST("/reviews/create", tenant, h.createReview)
	protected.GET("/reviews/property/:id", h.listPropertyReviews)
	protected.DELETE("/reviews/:id", middleware.RequireRole(model.RoleTenant, model.RoleAdmin), h.deleteReview)

	protected.POST("/rentals/create", tenant, h.createRental)
	protected.GET("/rentals/tenants", tenant, h.listTenantRentals)
	protected.GET("/rentals/owners", owner, h.listOwnerRentals)
	protected.GET("/rentals", admin, h.listRentals)
	protected.PUT("/rentals/:id", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), h.updateRentalStatus)
	protected.DELETE("/rentals/:id", h.deleteRental)

	protected.GET("/agreements/tenant", tenant, h.listTenantAgreements)
	protected.GET("/agreements", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), h.listAgreements)
	protected.GET("/agreements/:id/payments", h.agreementPayments)

	protected.POST("/payments/checkout", tenant, h.createCheckout)
	protected.GET("/payments/history", h.paymentHistory)
	protected.GET("/payments/upcoming", h.upcomingPayments)
	protected.GET("/payments/export", h.exportPayments)
	protected.GET("/payments/:paymentId", h.getPayment)

	protected.GET("/notifications", h.listNotifications)
	protected.PUT("/notifications", h.markNotificationsRead)
	protected.DELETE("/notifications/:id", h.deleteNotification)
}

type createUserRequest struct {
	FullName    string `json:"fullName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role" binding:"required"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.users.Create(c.Request.Context(), service.CreateUserInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.PhoneNumber,
		Role:     model.Role(strings.ToLower(strings.TrimSpace(req.Role))),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) listUsers(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	role := model.Role(strings.ToLower(strings.TrimSpace(c.Query("role"))))
	users, err := h.users.List(c.Request.Context(), principal, role)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) getUser(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) deleteUser(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createPropertyRequest struct {
	Title             string          `json:"title" binding:"required"`
	Description       string          `json:"description"`
	Street            string          `json:"street"`
	City              string          `json:"city"`
	State             string          `json:"state"`
	Country           string          `json:"country"`
	Zipcode           string          `json:"zipcode"`
	Latitude          *float64        `json:"latitude"`
	Longitude         *float64        `json:"longitude"`
	PropertyType      string          `json:"propertyType"`
	NumberOfBedrooms  int             `json:"numberOfBedrooms"`
	NumberOfBathrooms int             `json:"numberOfBathrooms"`
	AreaSqft          int             `json:"areaSqft"`
	RentAmount        decimal.Decimal `json:"rentAmount"`
	DepositAmount     decimal.Decimal `json:"depositAmount"`

	Features []model.PropertyFeature `json:"features"`
}

func (h *Handler) createProperty(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property, err := h.properties.Create(c.Request.Context(), service.CreatePropertyInput{
		Title:         req.Title,
		Description:   req.Description,
		Street:        req.Street,
		City:          req.City,
		State:         req.State,
		Country:       req.Country,
		Zipcode:       req.Zipcode,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		PropertyType:  req.PropertyType,
		Bedrooms:      req.NumberOfBedrooms,
		Bathrooms:     req.NumberOfBathrooms,
		AreaSqft:      req.AreaSqft,
		RentAmount:    req.RentAmount,
		DepositAmount: req.DepositAmount,
		Features:      req.Features,
		Principal:     principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, property)
}

func (h *Handler) listProperties(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	properties, err := h.properties.ListMine(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, properties)
}

func (h *Handler) getProperty(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	property, err := h.properties.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

type createReviewRequest struct {
	PropertyID string `json:"propertyId" binding:"required"`
	Rating     int    `json:"rating" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

func (h *Handler) createReview(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	propertyID, err := uuid.Parse(strings.TrimSpace(req.PropertyID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid propertyId"})
		return
	}
	review, err := h.reviews.Create(c.Request.Context(), service.CreateReviewInput{
		PropertyID: propertyID,
		Rating:     req.Rating,
		Content:    req.Content,
		Principal:  principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) listPropertyReviews(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	reviews, err := h.reviews.ListForProperty(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *Handler) deleteReview(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createRentalRequest struct {
	PropertyID         string          `json:"propertyId" binding:"required"`
	FullName           string          `json:"fullName" binding:"required"`
	DateOfBirth        string          `json:"dateOfBirth"`
	PhoneNumber        string          `json:"phoneNumber"`
	Email              string          `json:"email"`
	CurrentAddress     string          `json:"currentAddress"`
	GovernmentIDType   string          `json:"governmentIdType"`
	GovernmentIDNumber string          `json:"governmentIdNumber"`
	JobTitle           string          `json:"jobTitle"`
	MonthlyIncome      decimal.Decimal `json:"monthlyIncome"`
	EmploymentDuration string          `json:"employmentDuration"`
	EmployerContact    string          `json:"employerContact"`
	NumberOfOccupants  int             `json:"numberOfOccupants"`
	OccupantDetails    string          `json:"occupantDetails"`
	HasPets            bool            `json:"hasPets"`
	PetDetails         string          `json:"petDetails"`
	Message            string          `json:"message"`
	ExpectedMoveInDate string          `json:"expectedMoveInDate" binding:"required"`
	RentalDuration     int             `json:"rentalDuration"`
}

func (h *Handler) createRental(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	propertyID, err := uuid.Parse(strings.TrimSpace(req.PropertyID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid propertyId"})
		return
	}
	moveIn, err := parseDate(req.ExpectedMoveInDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expectedMoveInDate"})
		return
	}
	var dateOfBirth time.Time
	if strings.TrimSpace(req.DateOfBirth) != "" {
		if dateOfBirth, err = parseDate(req.DateOfBirth); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dateOfBirth"})
			return
		}
	}

	app, err := h.rentals.CreateApplication(c.Request.Context(), principal, model.RentalApplication{
		PropertyID:         propertyID,
		FullName:           req.FullName,
		DateOfBirth:        dateOfBirth,
		PhoneNumber:        req.PhoneNumber,
		Email:              req.Email,
		CurrentAddress:     req.CurrentAddress,
		GovernmentIDType:   req.GovernmentIDType,
		GovernmentIDNumber: req.GovernmentIDNumber,
		JobTitle:           req.JobTitle,
		MonthlyIncome:      req.MonthlyIncome,
		EmploymentDuration: req.EmploymentDuration,
		EmployerContact:    req.EmployerContact,
		NumberOfOccupants:  req.NumberOfOccupants,
		OccupantDetails:    req.OccupantDetails,
		HasPets:            req.HasPets,
		PetDetails:         req.PetDetails,
		Message:            req.Message,
		ExpectedMoveInDate: moveIn,
		RentalDuration:     req.RentalDuration,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *Handler) listTenantRentals(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	apps, err := h.rentals.ListForTenant(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *Handler) listOwnerRentals(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	apps, err := h.rentals.ListForOwner(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (h *Handler) listRentals(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	apps, err := h.rentals.ListAll(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

type updateRentalStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateRentalStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateRentalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := model.ApplicationStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	app, err := h.rentals.UpdateRentalStatus(c.Request.Context(), principal, id, status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *Handler) deleteRental(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.rentals.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listTenantAgreements(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	agreements, err := h.agreements.ListForTenant(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, agreements)
}

func (h *Handler) listAgreements(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	agreements, err := h.agreements.List(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, agreements)
}

func (h *Handler) agreementPayments(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	payments, err := h.agreements.Payments(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

type checkoutRequest struct {
	PaymentID string `json:"paymentId" binding:"required"`
}

func (h *Handler) createCheckout(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	paymentID, err := uuid.Parse(strings.TrimSpace(req.PaymentID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid paymentId"})
		return
	}

	result, err := h.payments.CreateCheckoutSession(c.Request.Context(), principal, paymentID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, service.CheckoutResult{Success: false})
			return
		}
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) stripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	result, err := h.payments.HandleWebhookEvent(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "result": result})
}

func (h *Handler) paymentHistory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	payments, err := h.payments.History(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *Handler) upcomingPayments(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	payments, err := h.payments.Upcoming(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *Handler) exportPayments(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	result, err := h.payments.Export(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, xlsxContentType, result.Content)
}

func (h *Handler) getPayment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "paymentId")
	if !ok {
		return
	}
	payment, err := h.payments.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) listNotifications(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	notifications, err := h.notifications.List(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *Handler) markNotificationsRead(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *Handler) deleteNotification(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrGateway):
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("payment gateway call failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable"})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
