// Package locale renders timestamps and amounts for display.
package locale

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// supported[0] is the fallback.
var supported = []language.Tag{
	language.MustParse("zh-CN"),
	language.AmericanEnglish,
	language.English,
}

var layouts = []string{
	"2006/1/2 15:04:05",
	"1/2/2006, 3:04:05 PM",
	"2006-01-02 15:04:05",
}

var matcher = language.NewMatcher(supported)

type Formatter struct {
	tag     language.Tag
	layout  string
	loc     *time.Location
	printer *message.Printer
	// Currency is prefixed to formatted amounts.
	Currency string
}

// New returns a Formatter for the best supported match of locale, rendering times
// in loc (time.Local when nil).
func New(locale string, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	_, idx, _ := matcher.Match(language.Make(locale))
	tag := supported[idx]
	return &Formatter{
		tag:      tag,
		layout:   layouts[idx],
		loc:      loc,
		printer:  message.NewPrinter(tag),
		Currency: "¥",
	}
}

func (f *Formatter) Tag() language.Tag { return f.tag }

// Timestamp renders a seconds-since-epoch string as a local date-time. It
// returns ok=false when the timestamp is not set ("" or "0"); input that is not
// a whole number of seconds is returned verbatim.
func (f *Formatter) Timestamp(ts string) (string, bool) {
	ts = strings.TrimSpace(ts)
	if ts == "" || ts == "0" {
		return "", false
	}
	secs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ts, true
	}
	return time.Unix(secs, 0).In(f.loc).Format(f.layout), true
}

// SheetLayout is the date-time layout used in tabular exports.
const SheetLayout = "2006-01-02 15:04:05"

// WithLayout returns a copy of f that renders timestamps with layout.
func (f *Formatter) WithLayout(layout string) *Formatter {
	c := *f
	c.layout = layout
	return &c
}

// Amount renders v with grouping separators and at most two fraction digits.
func (f *Formatter) Amount(v float64) string {
	return f.Currency + f.printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}
