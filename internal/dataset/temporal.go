package dataset

import (
	"time"
)

// temporalLayouts are tried in order. Layouts without a zone parse as the
// ingestion location, UTC by default.
var temporalLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006/1/2",
	"2006/1/2 15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/06",
	"1/2/06 15:04",
	"01-02-06",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// timeParser parses cells of one column. The layout that matched last is
// tried first, since columns are usually uniform.
type timeParser struct {
	loc  *time.Location
	last string
}

func newTimeParser(loc *time.Location) *timeParser {
	if loc == nil {
		loc = time.UTC
	}
	return &timeParser{loc: loc}
}

func (p *timeParser) parse(value string) (time.Time, bool) {
	if p.last != "" {
		if t, err := time.ParseInLocation(p.last, value, p.loc); err == nil {
			return t, true
		}
	}
	for _, layout := range temporalLayouts {
		if layout == p.last {
			continue
		}
		if t, err := time.ParseInLocation(layout, value, p.loc); err == nil {
			p.last = layout
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTime parses a single value with the supported layouts in UTC
func ParseTime(value string) (time.Time, bool) {
	return newTimeParser(time.UTC).parse(value)
}
