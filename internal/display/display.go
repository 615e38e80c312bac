// Package display renders dates and money the way the condominium staff
// read them. Nothing here feeds back into classification.
package display

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DateLayout is the ISO calendar date used in storage and on the wire.
const DateLayout = "2006-01-02"

type Options struct {
	Language       string
	DateLayout     string
	DateTimeLayout string
	Currency       string
}

type Formatter struct {
	printer        *message.Printer
	dateLayout     string
	dateTimeLayout string
	currency       string
}

// New builds a Formatter. Empty options fall back to pt-BR conventions.
func New(opts Options) (*Formatter, error) {
	tag := language.BrazilianPortuguese
	if strings.TrimSpace(opts.Language) != "" {
		parsed, err := language.Parse(opts.Language)
		if err != nil {
			return nil, err
		}
		tag = parsed
	}
	f := &Formatter{
		printer:        message.NewPrinter(tag),
		dateLayout:     opts.DateLayout,
		dateTimeLayout: opts.DateTimeLayout,
		currency:       opts.Currency,
	}
	if f.dateLayout == "" {
		f.dateLayout = "02/01/2006"
	}
	if f.dateTimeLayout == "" {
		f.dateTimeLayout = f.dateLayout + ", 15:04:05"
	}
	if f.currency == "" {
		f.currency = "R$"
	}
	return f, nil
}

// Default is the pt-BR formatter.
func Default() *Formatter {
	f, _ := New(Options{})
	return f
}

// Date reformats an ISO date. Unparseable input is returned unchanged.
func (f *Formatter) Date(iso string) string {
	t, err := time.Parse(DateLayout, iso)
	if err != nil {
		return iso
	}
	return t.Format(f.dateLayout)
}

// DateTime reformats an RFC3339 timestamp.
func (f *Formatter) DateTime(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Format(f.dateTimeLayout)
}

// Money prints v with two decimals and locale grouping, e.g. "R$ 2.500,00".
func (f *Formatter) Money(v float64) string {
	return f.currency + " " + f.printer.Sprintf("%.2f", v)
}

// Percent prints a percentage rounded to a whole number.
func (f *Formatter) Percent(v float64) string {
	return f.printer.Sprintf("%.0f%%", v)
}
