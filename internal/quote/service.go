// Package quote exposes the pricing engine over HTTP.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/productform/internal/calendar"
	"github.com/noah-isme/productform/internal/clock"
	"github.com/noah-isme/productform/internal/common"
	"github.com/noah-isme/productform/internal/form"
	"github.com/noah-isme/productform/internal/formstore"
	"github.com/noah-isme/productform/internal/obs"
	"github.com/noah-isme/productform/internal/pricing"
	"github.com/noah-isme/productform/internal/timeslot"
	"github.com/noah-isme/productform/internal/variation"
)

const tracerName = "quote"

func init() {
	// Amounts render as JSON numbers without losing decimal precision.
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultMaxWindowDays bounds calendar queries when no limit is configured.
const DefaultMaxWindowDays = 366

// Store is the document storage used by the service.
type Store interface {
	Get(ctx context.Context, productID string) (formstore.Record, error)
	Put(ctx context.Context, productID string, doc json.RawMessage, revision int64) (formstore.Record, error)
	Delete(ctx context.Context, productID string) error
}

// Service builds form sessions from stored or inline documents and runs the engine.
type Service struct {
	store         Store
	clock         clock.Clock
	logger        zerolog.Logger
	maxWindowDays int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store         Store
	Clock         clock.Clock
	Logger        zerolog.Logger
	MaxWindowDays int
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewRealClock()
	}
	window := cfg.MaxWindowDays
	if window <= 0 {
		window = DefaultMaxWindowDays
	}
	return &Service{store: cfg.Store, clock: clk, logger: cfg.Logger, maxWindowDays: window}
}

// Source names the document a request works on: a stored product or an inline document.
type Source struct {
	ProductID string          `json:"product_id" validate:"omitempty,max=128,excludesall=/"`
	Document  json.RawMessage `json:"document"`
}

// Result is the state and price summary after a transition.
type Result struct {
	State         form.State   `json:"state"`
	Summary       Summary      `json:"summary"`
	Panels        []form.Panel `json:"panels"`
	OutOfStock    bool         `json:"out_of_stock"`
	FellBack      bool         `json:"fell_back"`
	ScrollToImage string       `json:"scroll_to_image,omitempty"`
}

// Summary is the price summary rendered for clients.
type Summary struct {
	Items       []Item          `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Item is one rendered summary line.
type Item struct {
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
	Quantity int             `json:"quantity,omitempty"`
	Hidden   bool            `json:"hidden"`
}

// Day is one rendered calendar day.
type Day struct {
	Date         string          `json:"date"`
	Disabled     bool            `json:"disabled"`
	Unavailable  bool            `json:"unavailable"`
	TooltipPrice decimal.Decimal `json:"tooltip_price"`
	Capacity     *int            `json:"capacity,omitempty"`
}

// Slots is the timeslot availability of one day.
type Slots struct {
	Date     string                  `json:"date"`
	Slots    []timeslot.Availability `json:"slots"`
	Capacity int                     `json:"capacity"`
}

func newSummary(s pricing.Summary) Summary {
	items := make([]Item, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, Item{
			Label:    it.Label,
			Amount:   it.Amount,
			Quantity: it.Quantity,
			Hidden:   it.Hidden,
		})
	}
	return Summary{Items: items, TotalAmount: s.Total}
}

// SaveForm validates doc by building a session from it and stores it for productID.
func (s *Service) SaveForm(ctx context.Context, productID string, doc json.RawMessage, revision int64) (formstore.Record, error) {
	if s.store == nil {
		return formstore.Record{}, common.NewAppError("INTERNAL", "form store not configured", http.StatusInternalServerError, nil)
	}
	if _, err := s.build(doc); err != nil {
		return formstore.Record{}, err
	}
	rec, err := s.store.Put(ctx, productID, doc, revision)
	if err != nil {
		obs.ObserveStoreWrite(storeResult(err))
		return formstore.Record{}, s.storeError(ctx, "put", productID, err)
	}
	obs.ObserveStoreWrite("ok")
	return rec, nil
}

// LoadForm returns the stored document of productID.
func (s *Service) LoadForm(ctx context.Context, productID string) (formstore.Record, error) {
	if s.store == nil {
		return formstore.Record{}, common.NewAppError("INTERNAL", "form store not configured", http.StatusInternalServerError, nil)
	}
	rec, err := s.store.Get(ctx, productID)
	if err != nil {
		return formstore.Record{}, s.storeError(ctx, "get", productID, err)
	}
	return rec, nil
}

// DeleteForm removes the stored document of productID.
func (s *Service) DeleteForm(ctx context.Context, productID string) error {
	if s.store == nil {
		return common.NewAppError("INTERNAL", "form store not configured", http.StatusInternalServerError, nil)
	}
	if err := s.store.Delete(ctx, productID); err != nil {
		obs.ObserveStoreWrite(storeResult(err))
		return s.storeError(ctx, "delete", productID, err)
	}
	obs.ObserveStoreWrite("ok")
	return nil
}

// Init computes the first state of a form. A non-empty search query replaces
// the document's stored search context; malformed parts of it are ignored.
func (s *Service) Init(ctx context.Context, src Source, search string) (Result, error) {
	ctx, end := obs.StartSpan(ctx, tracerName, "quote.init")
	doc, err := s.document(ctx, src)
	if err != nil {
		end(err)
		return Result{}, err
	}
	if strings.TrimSpace(search) != "" {
		parsed, _ := form.ParseSearchContext(search)
		if !parsed.Empty() {
			doc.Settings.SearchContext = parsed
		}
	}
	session, err := s.session(doc)
	if err != nil {
		end(err)
		return Result{}, err
	}
	update, err := session.InitialState()
	res, err := s.result(session, update, err)
	end(err)
	return res, err
}

// Apply runs one user action against state and recomputes the summary once.
func (s *Service) Apply(ctx context.Context, src Source, state json.RawMessage, raw []json.RawMessage) (Result, error) {
	ctx, end := obs.StartSpan(ctx, tracerName, "quote.apply", attribute.Int("mutations", len(raw)))
	session, err := s.load(ctx, src)
	if err != nil {
		end(err)
		return Result{}, err
	}
	mutations, err := form.DecodeMutations(raw)
	if err != nil {
		err = common.NewAppError("INVALID_MUTATION", err.Error(), http.StatusBadRequest, err)
		end(err)
		return Result{}, err
	}
	st, err := s.state(session, state)
	if err != nil {
		end(err)
		return Result{}, err
	}
	update, err := session.Apply(st, mutations...)
	res, err := s.result(session, update, err)
	end(err)
	return res, err
}

// Calendar renders the booking calendar between from and to inclusive.
func (s *Service) Calendar(ctx context.Context, src Source, state json.RawMessage, from, to time.Time) ([]Day, error) {
	session, err := s.load(ctx, src)
	if err != nil {
		return nil, err
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > s.maxWindowDays {
		return nil, common.NewAppError("INVALID_WINDOW", fmt.Sprintf("calendar window exceeds %d days", s.maxWindowDays), http.StatusBadRequest, nil)
	}
	st, err := s.state(session, state)
	if err != nil {
		return nil, err
	}
	infos, err := session.Days(st, from, to)
	if err != nil {
		return nil, bookingError(err)
	}
	out := make([]Day, 0, len(infos))
	for _, info := range infos {
		out = append(out, Day{
			Date:         info.Date.String(),
			Disabled:     info.Disabled,
			Unavailable:  info.Unavailable,
			TooltipPrice: info.TooltipPrice,
			Capacity:     info.Capacity,
		})
	}
	return out, nil
}

// Timeslots lists the slots of date.
func (s *Service) Timeslots(ctx context.Context, src Source, date time.Time) (Slots, error) {
	session, err := s.load(ctx, src)
	if err != nil {
		return Slots{}, err
	}
	slots, capacity, err := session.Timeslots(date)
	if err != nil {
		return Slots{}, bookingError(err)
	}
	if slots == nil {
		slots = []timeslot.Availability{}
	}
	return Slots{Date: calendar.Format(date), Slots: slots, Capacity: capacity}, nil
}

func (s *Service) result(session *form.Session, update form.Update, err error) (Result, error) {
	outOfStock := errors.Is(err, variation.ErrNoActiveVariation)
	if err != nil && !outOfStock {
		return Result{}, err
	}
	if update.FellBack {
		obs.ObserveFallback()
	}
	mode := string(session.Mode())
	start := time.Now()
	summary, err := session.Recompute(update.State)
	switch {
	case errors.Is(err, variation.ErrNoActiveVariation):
		outOfStock = true
		obs.ObserveRecompute(mode, "out_of_stock", 0)
	case err != nil:
		obs.ObserveRecompute(mode, "error", 0)
		return Result{}, err
	default:
		obs.ObserveRecompute(mode, "ok", obs.DurationMillis(time.Since(start)))
	}
	return Result{
		State:         update.State,
		Summary:       newSummary(summary),
		Panels:        session.Panels(update.State),
		OutOfStock:    outOfStock,
		FellBack:      update.FellBack,
		ScrollToImage: update.ScrollToImage,
	}, nil
}

func (s *Service) load(ctx context.Context, src Source) (*form.Session, error) {
	doc, err := s.document(ctx, src)
	if err != nil {
		return nil, err
	}
	return s.session(doc)
}

func (s *Service) document(ctx context.Context, src Source) (form.Document, error) {
	raw := src.Document
	if len(raw) == 0 || string(raw) == "null" {
		if src.ProductID == "" {
			return form.Document{}, common.NewAppError("INVALID_REQUEST", "product_id or document is required", http.StatusBadRequest, nil)
		}
		rec, err := s.LoadForm(ctx, src.ProductID)
		if err != nil {
			return form.Document{}, err
		}
		raw = rec.Document
	}
	doc, err := form.Decode(raw)
	if err != nil {
		return form.Document{}, invalidDocument(err)
	}
	return doc, nil
}

func (s *Service) build(raw json.RawMessage) (*form.Session, error) {
	doc, err := form.Decode(raw)
	if err != nil {
		return nil, invalidDocument(err)
	}
	return s.session(doc)
}

func (s *Service) session(doc form.Document) (*form.Session, error) {
	session, err := form.NewSession(doc, s.clock.Now())
	if err != nil {
		return nil, invalidDocument(err)
	}
	return session, nil
}

func (s *Service) state(session *form.Session, raw json.RawMessage) (form.State, error) {
	st, err := session.DecodeState(raw)
	if err != nil {
		return form.State{}, common.NewAppError("INVALID_STATE", "state could not be decoded", http.StatusBadRequest, err)
	}
	return st, nil
}

func (s *Service) storeError(ctx context.Context, op, productID string, err error) error {
	switch {
	case errors.Is(err, formstore.ErrNotFound):
		return common.NewAppError("NOT_FOUND", "form not found", http.StatusNotFound, err)
	case errors.Is(err, formstore.ErrRevisionMismatch):
		return common.NewAppError("REVISION_CONFLICT", "form was modified concurrently", http.StatusConflict, err)
	case errors.Is(err, formstore.ErrUnavailable):
		return common.NewAppError("UNAVAILABLE", "form store unavailable", http.StatusServiceUnavailable, err)
	}
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &s.logger
	}
	logger.Error().Err(err).Str("op", op).Str("product_id", productID).Msg("form_store_failed")
	return common.NewAppError("INTERNAL", "form store error", http.StatusInternalServerError, err)
}

func storeResult(err error) string {
	switch {
	case errors.Is(err, formstore.ErrNotFound):
		return "not_found"
	case errors.Is(err, formstore.ErrRevisionMismatch):
		return "conflict"
	case errors.Is(err, formstore.ErrUnavailable):
		return "unavailable"
	}
	return "error"
}

func invalidDocument(err error) error {
	return common.NewAppError("INVALID_DOCUMENT", err.Error(), http.StatusBadRequest, err)
}

func bookingError(err error) error {
	if errors.Is(err, form.ErrNotBooking) {
		return common.NewAppError("NOT_BOOKING", "form is not a booking form", http.StatusBadRequest, err)
	}
	return common.NewAppError("INVALID_REQUEST", err.Error(), http.StatusBadRequest, err)
}
