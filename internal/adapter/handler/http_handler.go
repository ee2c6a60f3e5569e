package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/okabakkie/marketplace/internal/core/domain"
	"github.com/okabakkie/marketplace/internal/core/service"
	"github.com/okabakkie/marketplace/internal/port"
)

// adminToken is the fixed bearer token handed out by the login endpoint.
// Admin auth is a static credential comparison, matching the MVP scope.
const adminToken = "admin_authenticated"

type HTTPHandler struct {
	reservations *service.ReservationService
	vendors      *service.VendorService
	query        *service.QueryService

	adminEmail    string
	adminPassword string
}

func NewHTTPHandler(reservations *service.ReservationService, vendors *service.VendorService, query *service.QueryService, adminEmail, adminPassword string) *HTTPHandler {
	return &HTTPHandler{
		reservations:  reservations,
		vendors:       vendors,
		query:         query,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("GET /api/vendors", h.ListVendors)
	mux.HandleFunc("GET /api/vendors/{id}", h.GetVendor)

	mux.HandleFunc("POST /api/reservations", h.CreateReservation)
	mux.HandleFunc("GET /api/reservations/customer/{phone}", h.ListReservationsByPhone)
	mux.HandleFunc("PATCH /api/reservations/{id}/cancel", h.CancelReservation)

	mux.HandleFunc("POST /api/admin/login", h.AdminLogin)
	mux.HandleFunc("POST /api/admin/vendors", h.requireAdmin(h.CreateVendor))
	mux.HandleFunc("GET /api/admin/vendors", h.requireAdmin(h.ListAllVendors))
	mux.HandleFunc("PATCH /api/admin/vendors/{id}", h.requireAdmin(h.UpdateVendor))
	mux.HandleFunc("GET /api/admin/reservations", h.requireAdmin(h.ListAllReservations))
	mux.HandleFunc("PATCH /api/admin/reservations/{id}/status", h.requireAdmin(h.UpdateReservationStatus))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.query.ListVendors(r.Context(), service.VendorFilter{
		FoodType: r.URL.Query().Get("foodType"),
		Search:   r.URL.Query().Get("search"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vendors)
}

func (h *HTTPHandler) GetVendor(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.query.GetVendor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vendor)
}

type createReservationRequest struct {
	RequestID     string `json:"request_id,omitempty"`
	VendorID      string `json:"vendor_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty"`
	BagCount      int    `json:"bag_count"`
	Notes         string `json:"notes,omitempty"`
}

type createReservationResponse struct {
	Message         string              `json:"message"`
	Reservation     *domain.Reservation `json:"reservation"`
	WhatsappMessage string              `json:"whatsapp_message,omitempty"`
}

func (h *HTTPHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.VendorID == "" || req.CustomerName == "" || req.CustomerPhone == "" {
		writeError(w, http.StatusBadRequest, "vendor ID, customer name, and phone number are required")
		return
	}
	if req.BagCount == 0 {
		req.BagCount = 1
	}

	resv, vendor, err := h.reservations.CreateReservation(r.Context(), service.CreateReservationInput{
		RequestID:     req.RequestID,
		VendorID:      req.VendorID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		BagCount:      req.BagCount,
		Notes:         req.Notes,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// The vendor snapshot comes from the decrement transaction, so the
	// confirmation text survives the vendor selling out or deactivating
	// right after the reservation landed.
	writeJSON(w, http.StatusCreated, createReservationResponse{
		Message:     "Reservation created successfully",
		Reservation: resv,
		WhatsappMessage: fmt.Sprintf(
			"Hi %s! Your OkaBakkie reservation is confirmed. Pickup: %s, %s-%s. Reservation #%s. Total: N$%.2f",
			resv.CustomerName, vendor.Name,
			vendor.PickupWindow.Start, vendor.PickupWindow.End,
			resv.ReservationNumber, resv.TotalPrice,
		),
	})
}

func (h *HTTPHandler) ListReservationsByPhone(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.query.ListReservationsByPhone(r.Context(), r.PathValue("phone"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservations)
}

func (h *HTTPHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	resv, err := h.reservations.CancelReservation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Reservation cancelled successfully",
		"reservation": resv,
	})
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *HTTPHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email != h.adminEmail || req.Password != h.adminPassword {
		writeError(w, http.StatusUnauthorized, "invalid admin credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Admin login successful",
		"token":   adminToken,
	})
}

func (h *HTTPHandler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+adminToken {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

type createVendorRequest struct {
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	FoodType           string              `json:"food_type"`
	Address            domain.Address      `json:"address"`
	Longitude          float64             `json:"longitude"`
	Latitude           float64             `json:"latitude"`
	PickupWindow       domain.PickupWindow `json:"pickup_window"`
	PickupInstructions string              `json:"pickup_instructions"`
	LogoURL            string              `json:"logo_url"`
	BannerURL          string              `json:"banner_url"`
	Price              float64             `json:"price"`
	OriginalPrice      float64             `json:"original_price"`
	AvailableCount     int                 `json:"available_count"`
}

func (h *HTTPHandler) CreateVendor(w http.ResponseWriter, r *http.Request) {
	var req createVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vendor, err := h.vendors.CreateVendor(r.Context(), service.CreateVendorInput{
		Name:               req.Name,
		Description:        req.Description,
		FoodType:           domain.FoodType(req.FoodType),
		Address:            req.Address,
		Longitude:          req.Longitude,
		Latitude:           req.Latitude,
		PickupWindow:       req.PickupWindow,
		PickupInstructions: req.PickupInstructions,
		LogoURL:            req.LogoURL,
		BannerURL:          req.BannerURL,
		Price:              req.Price,
		OriginalPrice:      req.OriginalPrice,
		AvailableCount:     req.AvailableCount,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Vendor created successfully",
		"vendor":  vendor,
	})
}

type updateVendorRequest struct {
	Name               *string          `json:"name"`
	Description        *string          `json:"description"`
	FoodType           *domain.FoodType `json:"food_type"`
	Street             *string          `json:"street"`
	City               *string          `json:"city"`
	Region             *string          `json:"region"`
	Longitude          *float64         `json:"longitude"`
	Latitude           *float64         `json:"latitude"`
	PickupStart        *string          `json:"pickup_start"`
	PickupEnd          *string          `json:"pickup_end"`
	PickupInstructions *string          `json:"pickup_instructions"`
	LogoURL            *string          `json:"logo_url"`
	BannerURL          *string          `json:"banner_url"`
	IsActive           *bool            `json:"is_active"`
	Price              *float64         `json:"price"`
	OriginalPrice      *float64         `json:"original_price"`
	AvailableCount     *int             `json:"available_count"`
}

func (h *HTTPHandler) UpdateVendor(w http.ResponseWriter, r *http.Request) {
	var req updateVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vendor, err := h.vendors.UpdateVendor(r.Context(), r.PathValue("id"), service.VendorUpdate{
		Name:               req.Name,
		Description:        req.Description,
		FoodType:           req.FoodType,
		Street:             req.Street,
		City:               req.City,
		Region:             req.Region,
		Longitude:          req.Longitude,
		Latitude:           req.Latitude,
		PickupStart:        req.PickupStart,
		PickupEnd:          req.PickupEnd,
		PickupInstructions: req.PickupInstructions,
		LogoURL:            req.LogoURL,
		BannerURL:          req.BannerURL,
		IsActive:           req.IsActive,
		Price:              req.Price,
		OriginalPrice:      req.OriginalPrice,
		AvailableCount:     req.AvailableCount,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Vendor updated successfully",
		"vendor":  vendor,
	})
}

func (h *HTTPHandler) ListAllVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.query.ListAllVendors(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vendors)
}

func (h *HTTPHandler) ListAllReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.query.ListAllReservations(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservations)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *HTTPHandler) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resv, err := h.reservations.AdvanceReservation(r.Context(), r.PathValue("id"), domain.Status(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Reservation status updated",
		"reservation": resv,
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, port.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, port.ErrVendorInactive):
		writeError(w, http.StatusBadRequest, "vendor is not currently accepting orders")
	case errors.Is(err, port.ErrInsufficientInventory):
		writeError(w, http.StatusConflict, "not enough bags available")
	case errors.Is(err, port.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "reservation cannot change to the requested status")
	case errors.Is(err, port.ErrConflict):
		writeError(w, http.StatusConflict, "could not allocate a reservation number")
	case errors.Is(err, service.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "duplicate request")
	case errors.Is(err, service.ErrInvalidBagCount), errors.Is(err, service.ErrInvalidVendor):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Errorf("request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
