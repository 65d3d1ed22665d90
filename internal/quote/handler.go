package quote

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/productform/internal/calendar"
	"github.com/noah-isme/productform/internal/common"
	"github.com/noah-isme/productform/internal/formstore"
)

// Handler exposes form storage and quote endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service   *Service
	Validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validator
	if v == nil {
		v = NewValidator()
	}
	return &Handler{service: cfg.Service, validate: v}
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Routes mounts the handler under an /api/v1 router. Write middlewares only
// wrap form storage writes.
func (h *Handler) Routes(r chi.Router, write ...func(http.Handler) http.Handler) {
	r.Route("/forms/{productID}", func(f chi.Router) {
		f.Get("/", h.GetForm)
		f.With(write...).Put("/", h.PutForm)
		f.With(write...).Delete("/", h.DeleteForm)
	})
	r.Route("/quotes", func(q chi.Router) {
		q.Post("/init", h.Init)
		q.Post("/apply", h.Apply)
		q.Post("/calendar", h.Calendar)
		q.Post("/timeslots", h.Timeslots)
	})
}

type putFormRequest struct {
	Document json.RawMessage `json:"document" validate:"required"`
	Revision *int64          `json:"revision" validate:"omitempty,min=0"`
}

type initRequest struct {
	Source
	Search string `json:"search" validate:"max=4096"`
}

type applyRequest struct {
	Source
	State     json.RawMessage   `json:"state"`
	Mutations []json.RawMessage `json:"mutations" validate:"required,min=1,max=64"`
}

type calendarRequest struct {
	Source
	State json.RawMessage `json:"state"`
	From  string          `json:"from" validate:"required,datetime=2006-01-02"`
	To    string          `json:"to" validate:"required,datetime=2006-01-02"`
}

type timeslotsRequest struct {
	Source
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// GetForm handles GET /api/v1/forms/{productID}.
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.LoadForm(r.Context(), productID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rec)
}

// PutForm handles PUT /api/v1/forms/{productID}.
func (h *Handler) PutForm(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	var req putFormRequest
	if !h.decode(w, r, &req) {
		return
	}
	revision := formstore.AnyRevision
	if req.Revision != nil {
		revision = *req.Revision
	}
	rec, err := h.service.SaveForm(r.Context(), productID, req.Document, revision)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rec)
}

// DeleteForm handles DELETE /api/v1/forms/{productID}.
func (h *Handler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteForm(r.Context(), productID); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Init handles POST /api/v1/quotes/init.
func (h *Handler) Init(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req initRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.service.Init(r.Context(), req.Source, req.Search)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, res)
}

// Apply handles POST /api/v1/quotes/apply.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req applyRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.service.Apply(r.Context(), req.Source, req.State, req.Mutations)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, res)
}

// Calendar handles POST /api/v1/quotes/calendar.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req calendarRequest
	if !h.decode(w, r, &req) {
		return
	}
	from, to, err := parseWindow(req.From, req.To)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	days, err := h.service.Calendar(r.Context(), req.Source, req.State, from, to)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, days)
}

// Timeslots handles POST /api/v1/quotes/timeslots.
func (h *Handler) Timeslots(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req timeslotsRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		common.WriteError(w, common.NewAppError("INVALID_REQUEST", "date must be YYYY-MM-DD", http.StatusBadRequest, err))
		return
	}
	slots, err := h.service.Timeslots(r.Context(), req.Source, date)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, slots)
}

func parseWindow(fromText, toText string) (time.Time, time.Time, error) {
	from, err := calendar.ParseDate(fromText)
	if err != nil {
		return time.Time{}, time.Time{}, common.NewAppError("INVALID_REQUEST", "from must be YYYY-MM-DD", http.StatusBadRequest, err)
	}
	to, err := calendar.ParseDate(toText)
	if err != nil {
		return time.Time{}, time.Time{}, common.NewAppError("INVALID_REQUEST", "to must be YYYY-MM-DD", http.StatusBadRequest, err)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, common.NewAppError("INVALID_WINDOW", "to must not be before from", http.StatusBadRequest, nil)
	}
	return from, to, nil
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (string, bool) {
	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if err := h.validate.Var(productID, "required,max=128,excludesall=/"); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid product id", nil)
		return "", false
	}
	return productID, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		common.WriteError(w, common.NewAppError("INVALID_JSON", "request body must be valid JSON", http.StatusBadRequest, err))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			common.WriteError(w, common.NewAppError("VALIDATION_FAILED", "request validation failed", http.StatusBadRequest, err).
				WithDetails(map[string]any{"fields": fields}))
			return false
		}
		common.WriteError(w, err)
		return false
	}
	return true
}
