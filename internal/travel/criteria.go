package travel

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// AllValue disables the category or year filter it is passed to
const AllValue = "all"

// YearSet is the normalized form of a year filter. A nil or empty set means no filter.
type YearSet map[int]struct{}

// YearsOf builds a set from integers; a single year becomes a singleton set
func YearsOf(years ...int) YearSet {
	if len(years) == 0 {
		return nil
	}
	set := make(YearSet, len(years))
	for _, y := range years {
		set[y] = struct{}{}
	}
	return set
}

// ParseYears normalizes year input taken from forms or query strings. Each value
// may itself be comma separated. Blank values are ignored and "all" anywhere
// disables the filter.
func ParseYears(values ...string) (YearSet, error) {
	var years []int
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if strings.EqualFold(part, AllValue) {
				return nil, nil
			}
			y, err := strconv.Atoi(part)
			if err != nil {
				return nil, &InputError{Field: "year", Value: part, Cause: err}
			}
			years = append(years, y)
		}
	}
	return YearsOf(years...), nil
}

// Contains reports whether y is in the set
func (s YearSet) Contains(y int) bool {
	_, ok := s[y]
	return ok
}

// Sorted returns the years in ascending order, nil for an empty set
func (s YearSet) Sorted() []int {
	if len(s) == 0 {
		return nil
	}
	out := make([]int, 0, len(s))
	for y := range s {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// Criteria are the optional filters applied to a dataset. The zero value matches everything.
type Criteria struct {
	Years         YearSet
	Start         *time.Time
	End           *time.Time
	ItineraryType string
}

// IsZero reports whether no filter is active
func (c Criteria) IsZero() bool {
	return len(c.Years) == 0 && c.Start == nil && c.End == nil && !c.filtersCategory()
}

func (c Criteria) filtersCategory() bool {
	t := strings.TrimSpace(c.ItineraryType)
	return t != "" && !strings.EqualFold(t, AllValue)
}

// RawCriteria carries filter input exactly as callers supplied it
type RawCriteria struct {
	StartDate     string
	EndDate       string
	ItineraryType string
	Years         []string
}

// ParseCriteria validates raw input. The first malformed field is returned as an
// *InputError; nothing else is affected.
func ParseCriteria(raw RawCriteria) (Criteria, error) {
	var c Criteria

	years, err := ParseYears(raw.Years...)
	if err != nil {
		return Criteria{}, err
	}
	c.Years = years

	if s := strings.TrimSpace(raw.StartDate); s != "" {
		t, err := ParseISODate(s)
		if err != nil {
			return Criteria{}, &InputError{Field: "start_date", Value: s, Cause: err}
		}
		c.Start = &t
	}
	if s := strings.TrimSpace(raw.EndDate); s != "" {
		t, err := ParseISODate(s)
		if err != nil {
			return Criteria{}, &InputError{Field: "end_date", Value: s, Cause: err}
		}
		c.End = &t
	}

	c.ItineraryType = strings.TrimSpace(raw.ItineraryType)
	return c, nil
}
