package period

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// anchorYear is the first calendar year covered by the quarterly review scheme.
const anchorYear = 2020

// dateLayouts are the trade/reference date formats accepted by ResolveString,
// tried in order. The first one is the day/month/year format of the trade feeds.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Label identifies one quarterly reporting period ("P<n>").
//
// Labels are totally ordered by their index: P0 covers January to March 2020,
// P1 covers April to June 2020, and so on. Use Less or Sort to order them;
// never compare their string form.
type Label int

// String renders the label as "P<n>".
func (l Label) String() string {
	return "P" + strconv.Itoa(int(l))
}

// Less reports whether l sorts before other.
func (l Label) Less(other Label) bool { return l < other }

// MarshalText makes labels usable as JSON map keys and values ("P7").
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses the "P<n>" form produced by MarshalText.
func (l *Label) UnmarshalText(b []byte) error {
	parsed, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Resolve maps a trade date onto its quarterly reporting period.
//
// Behavior:
//   - Zero time or a date strictly before 2020-01-01 → absent (false).
//   - January to March belong to the fourth quarter of the previous year.
//   - April to June → Q1, July to September → Q2, October to December → Q3.
//   - n = (effective year - 2020) * 4 + quarter.
//
// Examples: 2020-01-01 → P0, 2020-03-31 → P0, 2020-04-01 → P1.
func Resolve(t time.Time) (Label, bool) {
	if t.IsZero() || t.Year() < anchorYear {
		return 0, false
	}

	year := t.Year()
	var quarter int
	switch m := t.Month(); {
	case m <= time.March:
		year--
		quarter = 4
	case m <= time.June:
		quarter = 1
	case m <= time.September:
		quarter = 2
	default:
		quarter = 3
	}

	return Label((year-anchorYear)*4 + quarter), true
}

// ResolveString parses s with the accepted date layouts and resolves it.
// Empty or unparseable input yields an absent period.
func ResolveString(s string) (Label, bool) {
	t, ok := ParseDate(s)
	if !ok {
		return 0, false
	}
	return Resolve(t)
}

// ParseDate parses a feed date with the accepted layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseLabel parses "P<n>" (case-insensitive prefix) into a Label.
func ParseLabel(s string) (Label, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || (s[0] != 'P' && s[0] != 'p') {
		return 0, fmt.Errorf("invalid period label %q", s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid period label %q", s)
	}
	return Label(n), nil
}

// Bounds returns the first day of the period and the first day of the next one.
func (l Label) Bounds() (start, end time.Time) {
	n := int(l)
	// P0 is the last quarter of the 2019 "effective year": Jan-Mar 2020.
	months := (n - 1) * 3
	start = time.Date(anchorYear, time.April, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	end = start.AddDate(0, 3, 0)
	return start, end
}

// Sort orders labels ascending in place.
func Sort(labels []Label) {
	sort.Slice(labels, func(i, j int) bool { return labels[i].Less(labels[j]) })
}

// Set is an ordered-on-demand collection of distinct labels.
type Set map[Label]struct{}

// Add inserts l into the set.
func (s Set) Add(l Label) { s[l] = struct{}{} }

// Sorted returns the labels of s in ascending order.
func (s Set) Sorted() []Label {
	out := make([]Label, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	Sort(out)
	return out
}
