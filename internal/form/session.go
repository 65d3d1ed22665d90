package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/productform/internal/addon"
	"github.com/noah-isme/productform/internal/availability"
	"github.com/noah-isme/productform/internal/booking"
	"github.com/noah-isme/productform/internal/calendar"
	"github.com/noah-isme/productform/internal/money"
	"github.com/noah-isme/productform/internal/pricerule"
	"github.com/noah-isme/productform/internal/pricing"
	"github.com/noah-isme/productform/internal/timeslot"
	"github.com/noah-isme/productform/internal/variation"
)

// State is the mutable selection state of a form. It mirrors the document value.
type State struct {
	Addons     map[string]addon.State `json:"addons"`
	Stock      StockValue             `json:"stock"`
	Variations variation.State        `json:"variations"`
	Booking    booking.Value          `json:"booking"`
}

// StockValue is the regular mode quantity.
type StockValue struct {
	Quantity int `json:"quantity"`
}

func (s State) clone() State {
	out := s
	out.Addons = make(map[string]addon.State, len(s.Addons))
	for k, v := range s.Addons {
		out.Addons[k] = v
	}
	out.Variations = s.Variations.Clone()
	if s.Booking.Slot != nil {
		slot := *s.Booking.Slot
		out.Booking.Slot = &slot
	}
	return out
}

// Update is the outcome of a state transition.
type Update struct {
	State State
	// FellBack is set when the variation selections had to be rewritten.
	FellBack bool
	// ScrollToImage names the image of the resolved variation, if any.
	ScrollToImage string
}

// Session holds everything derived from one configuration document. It is
// read-only after construction and safe for concurrent use.
type Session struct {
	doc        Document
	mode       pricing.Mode
	today      time.Time
	rules      *pricerule.Resolver
	addons     []addon.Addon
	addonIndex map[string]int
	variations *variation.Resolver
	calendar   *availability.Calendar
	slots      *timeslot.Scheduler
}

// NewSession validates doc and builds the resolvers used for the whole session.
func NewSession(doc Document, now time.Time) (*Session, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	mode := doc.Settings.ProductMode
	if mode == "" {
		mode = pricing.ModeRegular
	}
	s := &Session{
		doc:        doc,
		mode:       mode,
		today:      calendar.Day(now),
		rules:      pricerule.NewResolver(doc.Props.CustomPrices.Enabled, doc.Props.CustomPrices.List),
		addonIndex: make(map[string]int, len(doc.Props.Fields.Addons)),
	}
	// Variable products price the variation alone.
	if mode != pricing.ModeVariable {
		s.addons = doc.Props.Fields.Addons
		for i, a := range s.addons {
			s.addonIndex[a.Key] = i
		}
	}
	switch mode {
	case pricing.ModeVariable:
		s.variations = variation.NewResolver(*doc.Props.Fields.Variations)
	case pricing.ModeBooking:
		cfg := *doc.Props.Fields.Booking
		s.calendar = availability.New(cfg, now)
		if cfg.Mode == booking.ModeTimeslots {
			s.slots = timeslot.New(cfg, now)
		}
	}
	return s, nil
}

// Mode returns the product mode.
func (s *Session) Mode() pricing.Mode { return s.mode }

func (s *Session) bookingConfig() *booking.Config {
	if s.mode != pricing.ModeBooking {
		return nil
	}
	return s.doc.Props.Fields.Booking
}

func (s *Session) addon(key string) (addon.Addon, bool) {
	i, ok := s.addonIndex[key]
	if !ok {
		return addon.Addon{}, false
	}
	return s.addons[i], true
}

type rawValue struct {
	Addons     map[string]json.RawMessage `json:"addons"`
	Stock      json.RawMessage            `json:"stock"`
	Variations json.RawMessage            `json:"variations"`
	Booking    booking.Value              `json:"booking"`
}

// DecodeState reads a stored value. Addon states are decoded against their
// configured kind; states of unknown addons are dropped. Quantities and
// selections that do not fit are dropped rather than failing the value.
func (s *Session) DecodeState(data json.RawMessage) (State, error) {
	st := State{Addons: make(map[string]addon.State, len(s.addons))}
	if len(data) == 0 || string(data) == "null" {
		return st, nil
	}
	var raw rawValue
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, fmt.Errorf("%w: value: %v", ErrInvalidDocument, err)
	}
	for _, a := range s.addons {
		if v, ok := raw.Addons[a.Key]; ok {
			if decoded := addon.DecodeState(a, v); decoded != nil {
				st.Addons[a.Key] = decoded
			}
		}
	}
	if len(raw.Stock) > 0 {
		var stock struct {
			Quantity json.Number `json:"quantity"`
		}
		if json.Unmarshal(raw.Stock, &stock) == nil {
			if q, err := stock.Quantity.Int64(); err == nil {
				st.Stock.Quantity = int(q)
			}
		}
	}
	if len(raw.Variations) > 0 {
		st.Variations = variation.DecodeState(raw.Variations)
	}
	st.Booking = raw.Booking
	return st, nil
}

// InitialState computes the first state of the form: the stored value with
// defaults filled in for everything it leaves unset, seeded by the search context.
func (s *Session) InitialState() (Update, error) {
	st, err := s.DecodeState(s.doc.Value)
	if err != nil {
		return Update{}, err
	}
	search := s.doc.Settings.SearchContext
	for _, a := range s.addons {
		if _, ok := st.Addons[a.Key]; !ok {
			st.Addons[a.Key] = addon.DefaultState(a, search.Addons[a.Key])
		}
	}
	if st.Stock.Quantity == 0 {
		st.Stock.Quantity, _ = s.doc.Props.Fields.Stock.Bounds()
	}
	if s.mode == pricing.ModeBooking && st.Booking.IsZero() {
		st.Booking = s.seedBooking(search)
	}
	if s.mode == pricing.ModeVariable {
		if st.Variations.Quantity < 1 {
			st.Variations.Quantity = 1
		}
		if len(st.Variations.Selections) == 0 {
			res, err := s.variations.SetDefaultSelection(st.Variations)
			st.Variations = res.State
			return s.finish(st, res, err)
		}
	}
	return s.normalize(st)
}

// seedBooking takes the booking from the search context when the calendar allows it.
func (s *Session) seedBooking(search SearchContext) booking.Value {
	cfg := s.bookingConfig()
	switch cfg.Mode {
	case booking.ModeDateRange:
		if search.StartDate.IsZero() || search.EndDate.IsZero() {
			return booking.Value{}
		}
		start := search.StartDate.Time
		if s.calendar.IsRangeDayDisabled(start, nil, false) || s.calendar.IsRangeDayDisabled(search.EndDate.Time, &start, true) {
			return booking.Value{}
		}
		return booking.Value{StartDate: search.StartDate, EndDate: search.EndDate}
	case booking.ModeSingleDay, booking.ModeTimeslots:
		date := search.Date
		if date.IsZero() {
			date = search.StartDate
		}
		if date.IsZero() || s.singleDayDisabled(date.Time) {
			return booking.Value{}
		}
		return booking.Value{Date: date}
	}
	return booking.Value{}
}

// normalize clamps every quantity and re-resolves the variation.
func (s *Session) normalize(st State) (Update, error) {
	for _, a := range s.addons {
		st.Addons[a.Key] = addon.ValidateBounds(a, st.Addons[a.Key])
	}
	lo, hi := s.doc.Props.Fields.Stock.Bounds()
	st.Stock.Quantity = max(st.Stock.Quantity, lo)
	if hi > 0 {
		st.Stock.Quantity = min(st.Stock.Quantity, hi)
	}
	if s.mode != pricing.ModeVariable {
		return Update{State: st}, nil
	}
	res, err := s.variations.Validate(st.Variations)
	st.Variations = res.State
	return s.finish(st, res, err)
}

func (s *Session) finish(st State, res variation.Resolution, err error) (Update, error) {
	for _, a := range s.addons {
		st.Addons[a.Key] = addon.ValidateBounds(a, st.Addons[a.Key])
	}
	return Update{State: st, FellBack: res.FellBack, ScrollToImage: res.ScrollToImage}, err
}

// Recompute prices st from scratch. Variable forms without any active variation
// return variation.ErrNoActiveVariation with an empty summary.
func (s *Session) Recompute(st State) (pricing.Summary, error) {
	in := pricing.Inputs{
		Mode:      s.mode,
		BasePrice: s.doc.Props.BasePrice,
		Rules:     s.rules,
		Reference: s.today,
		Quantity:  st.Stock.Quantity,
	}
	switch s.mode {
	case pricing.ModeVariable:
		line := s.variations.SummaryLine(st.Variations)
		if line == nil {
			if _, err := s.variations.Validate(st.Variations); errors.Is(err, variation.ErrNoActiveVariation) {
				return pricing.Summary{Items: []pricing.Item{}}, err
			}
		}
		in.Variation = line
		if line != nil {
			in.VariationQuantity = line.Quantity
		}
		return pricing.Compute(in), nil
	case pricing.ModeBooking:
		in.Booking = s.bookingConfig()
		in.BookingValue = st.Booking
	}
	in.Addons = s.addonLines(st)
	return pricing.Compute(in), nil
}

func (s *Session) addonLines(st State) []money.Line {
	cfg := s.bookingConfig()
	ctx := addon.PriceContext{
		Rules:     s.rules,
		Reference: booking.ReferenceDate(cfg, st.Booking, s.today),
	}
	if days, ok := booking.RepeatDays(cfg, st.Booking); ok {
		ctx.RepeatDays = days
	}
	var lines []money.Line
	for _, a := range s.addons {
		lines = append(lines, addon.Lines(a, st.Addons[a.Key], ctx)...)
	}
	return lines
}
