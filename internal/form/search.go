package form

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/noah-isme/productform/internal/calendar"
)

const addonParamPrefix = "addons."

// SearchContext is the initial selection carried over from the page the
// customer came from.
type SearchContext struct {
	Addons    map[string][]string `json:"addons,omitempty"`
	StartDate calendar.Date       `json:"start_date,omitzero"`
	EndDate   calendar.Date       `json:"end_date,omitzero"`
	Date      calendar.Date       `json:"date,omitzero"`
}

// Empty reports whether the context carries nothing.
func (c SearchContext) Empty() bool {
	return len(c.Addons) == 0 && c.StartDate.IsZero() && c.EndDate.IsZero() && c.Date.IsZero()
}

// ParseSearchContext reads a referrer query string, or a full referrer URL.
// Recognised keys are addons.<key>, start, end and date. Values that cannot be
// parsed are skipped and reported through the joined error; the returned
// context always holds everything that could be read.
func ParseSearchContext(rawQuery string) (SearchContext, error) {
	raw := strings.TrimSpace(rawQuery)
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	var ctx SearchContext
	values, err := url.ParseQuery(raw)
	var errs []error
	if err != nil {
		errs = append(errs, fmt.Errorf("search context: %w", err))
	}
	for key, vals := range values {
		switch {
		case strings.HasPrefix(key, addonParamPrefix):
			name := strings.TrimPrefix(key, addonParamPrefix)
			if name == "" {
				continue
			}
			for _, v := range vals {
				for _, part := range strings.Split(v, ",") {
					if part = strings.TrimSpace(part); part != "" {
						if ctx.Addons == nil {
							ctx.Addons = make(map[string][]string)
						}
						ctx.Addons[name] = append(ctx.Addons[name], part)
					}
				}
			}
		case key == "start", key == "end", key == "date":
			if len(vals) == 0 || vals[0] == "" {
				continue
			}
			t, perr := calendar.ParseDate(vals[0])
			if perr != nil {
				errs = append(errs, fmt.Errorf("search context %s: %w", key, perr))
				continue
			}
			d := calendar.NewDate(t)
			switch key {
			case "start":
				ctx.StartDate = d
			case "end":
				ctx.EndDate = d
			default:
				ctx.Date = d
			}
		}
	}
	return ctx, errors.Join(errs...)
}
