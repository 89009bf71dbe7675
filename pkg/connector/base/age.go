package base

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/ajitpratap0/sluice/pkg/errors"
)

var agePattern = regexp.MustCompile(`^(?:(\d*)y)?(?:(\d*)m)?(?:(\d*)w)?(?:(\d*)d)?(?:(\d*)H)?(?:(\d*)M)?(?:(\d*)S)?$`)

// Age is a relative calendar offset written as 0y0m0w0d0H0M0S. Every
// component is optional; units must appear in that order.
type Age struct {
	Years, Months, Weeks, Days int
	Hours, Minutes, Seconds    int
}

// ParseAge parses an age string. The empty string is the zero Age.
func ParseAge(s string) (Age, error) {
	m := agePattern.FindStringSubmatch(s)
	if m == nil {
		return Age{}, errors.New(errors.ErrorTypeConfig,
			fmt.Sprintf("age %q does not match the format 0y0m0w0d0H0M0S", s))
	}
	n := make([]int, 7)
	for i, part := range m[1:] {
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return Age{}, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("invalid age %q", s))
		}
		n[i] = v
	}
	return Age{
		Years: n[0], Months: n[1], Weeks: n[2], Days: n[3],
		Hours: n[4], Minutes: n[5], Seconds: n[6],
	}, nil
}

// IsZero reports whether no component is set
func (a Age) IsZero() bool {
	return a == Age{}
}

// Before returns the instant the age lies before now
func (a Age) Before(now time.Time) time.Time {
	t := now.AddDate(-a.Years, -a.Months, -(a.Weeks*7 + a.Days))
	return t.Add(-(time.Duration(a.Hours)*time.Hour +
		time.Duration(a.Minutes)*time.Minute +
		time.Duration(a.Seconds)*time.Second))
}
