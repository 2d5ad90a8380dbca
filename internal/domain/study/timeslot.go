package study

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Yaasiin-15/StudyDash-sub001/internal/domain/shared"
)

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(value string) (int, error) {
	hh, mm, found := strings.Cut(strings.TrimSpace(value), ":")
	if !found {
		return 0, invalidClock(value)
	}

	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 || hours > 23 {
		return 0, invalidClock(value)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, invalidClock(value)
	}

	return hours*60 + minutes, nil
}

// DurationMinutes returns end minus start in minutes. A slot that crosses
// midnight yields a negative value, which is returned as is. Malformed input
// yields 0.
func DurationMinutes(start, end string) int {
	s, err := ParseClock(start)
	if err != nil {
		return 0
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0
	}
	return e - s
}

func invalidClock(value string) error {
	return shared.WrapError("study", "ParseClock", shared.ErrInvalidFormat,
		fmt.Sprintf("cannot parse %q", value), shared.ErrInvalidClock)
}
