package locale

import (
	"fmt"
	"sync"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/message"

	"luncho-service/internal/domain/model"
	"luncho-service/internal/domain/ports"
)

// DisplayLocalizer names regions and currencies in one configured locale.
// The namers are built on first use and shared afterwards.
type DisplayLocalizer struct {
	locale string

	once    sync.Once
	tag     language.Tag
	regions display.Namer
	printer *message.Printer
}

var _ ports.Localizer = (*DisplayLocalizer)(nil)

func NewDisplayLocalizer(locale string) *DisplayLocalizer {
	return &DisplayLocalizer{locale: locale}
}

func (l *DisplayLocalizer) init() {
	l.once.Do(func() {
		l.tag = matchLocale(l.locale)
		l.regions = display.Regions(l.tag)
		l.printer = message.NewPrinter(l.tag)
	})
}

// matchLocale picks the closest locale x/text has names for, English otherwise.
func matchLocale(locale string) language.Tag {
	requested, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	matcher := language.NewMatcher(display.Supported.Tags())
	tag, _, confidence := matcher.Match(requested)
	if confidence == language.No {
		return language.English
	}
	return tag
}

// Tag returns the locale actually used for names.
func (l *DisplayLocalizer) Tag() language.Tag {
	l.init()
	return l.tag
}

func (l *DisplayLocalizer) RegionName(code model.CountryCode) string {
	l.init()

	region, err := language.ParseRegion(string(code))
	if err != nil {
		return string(code)
	}
	if name := l.regions.Name(region); name != "" {
		return name
	}
	return string(code)
}

// CurrencyName returns "JPY (¥)" style labels. x/text carries symbols but no
// currency display names.
func (l *DisplayLocalizer) CurrencyName(code model.CurrencyCode) string {
	l.init()

	unit, err := currency.ParseISO(string(code))
	if err != nil {
		return string(code)
	}
	symbol := l.printer.Sprint(currency.Symbol(unit))
	if symbol == "" || symbol == unit.String() {
		return unit.String()
	}
	return fmt.Sprintf("%s (%s)", unit.String(), symbol)
}
