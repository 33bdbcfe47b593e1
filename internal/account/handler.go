package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; every payload here is a handful of fields.
const maxBodyBytes = 4 << 10

type CreateRequest struct {
	Name    string   `json:"name" validate:"required,min=2,max=100"`
	Email   string   `json:"email,omitempty" validate:"omitempty,email"`
	Balance *float64 `json:"balance,omitempty" validate:"omitempty,gte=0"`
}

type CreateResponse struct {
	ID string `json:"id"`
}

type AdjustBalanceRequest struct {
	Amount *float64 `json:"amount" validate:"required"`
}

type AdjustBalanceResponse struct {
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// ErrorResponse follows the RFC 9457 problem details layout.
type ErrorResponse struct {
	Title  string       `json:"title"`
	Status int          `json:"status"`
	Detail string       `json:"detail,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type Handler struct {
	service  *Service
	logger   *zap.Logger
	validate *validator.Validate
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		service:  service,
		logger:   logger,
		validate: v,
	}
}

// Routes registers the account endpoints relative to the mount point.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.AdjustBalance)
	r.Delete("/{id}", h.Delete)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !h.bind(w, r, &req) {
		return
	}

	acc, err := h.service.CreateAccount(r.Context(), CreateInput{
		Name:    req.Name,
		Email:   req.Email,
		Balance: req.Balance,
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			h.writeError(w, r, http.StatusUnprocessableEntity, err)
			return
		}
		h.writeError(w, r, statusFor(err), err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, CreateResponse{ID: acc.ID})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}

	render.JSON(w, r, accounts)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	acc, err := h.service.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}

	render.JSON(w, r, acc)
}

func (h *Handler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	var req AdjustBalanceRequest
	if !h.bind(w, r, &req) {
		return
	}

	acc, err := h.service.AdjustBalance(r.Context(), chi.URLParam(r, "id"), *req.Amount)
	if err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}

	render.JSON(w, r, AdjustBalanceResponse{Name: acc.Name, Balance: acc.Balance})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, statusFor(err), err)
		return
	}

	render.NoContent(w, r)
}

// bind decodes and validates the JSON body into dst. On failure it writes
// the error response and returns false.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeJSON(w, r, ErrorResponse{
				Title:  "Request body too large",
				Status: http.StatusRequestEntityTooLarge,
				Detail: fmt.Sprintf("body must not exceed %d bytes", tooLarge.Limit),
			})
			return false
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			h.writeJSON(w, r, ErrorResponse{
				Title:  "Validation failed",
				Status: http.StatusUnprocessableEntity,
				Errors: []FieldError{{
					Field:   typeErr.Field,
					Rule:    "type",
					Message: fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type),
				}},
			})
			return false
		}
		h.writeJSON(w, r, ErrorResponse{
			Title:  "Invalid request body",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
		})
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			h.writeError(w, r, http.StatusInternalServerError, err)
			return false
		}
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   fe.Field(),
				Rule:    fe.Tag(),
				Message: fieldMessage(fe),
			})
		}
		h.writeJSON(w, r, ErrorResponse{
			Title:  "Validation failed",
			Status: http.StatusUnprocessableEntity,
			Errors: fields,
		})
		return false
	}

	return true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "email":
		return fe.Field() + " must be a valid email address"
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := ErrorResponse{
		Title:  http.StatusText(status),
		Status: status,
		Detail: err.Error(),
	}

	// Store internals stay in the logs.
	if status >= http.StatusInternalServerError {
		h.logger.Error("account request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		resp.Detail = "the account store is unavailable"
	}

	h.writeJSON(w, r, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, resp ErrorResponse) {
	render.Status(r, resp.Status)
	render.JSON(w, r, resp)
}
