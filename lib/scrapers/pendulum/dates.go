package pendulum

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"currentadda-pipeline/lib/timezone"
)

var NoDateInUrl = fmt.Errorf("No date found in the quiz url.")

// QuizDate is a date parsed out of a quiz URL slug. Weekend quizzes
// cover two days ("23-and-24-november-2025"), for those EndDay carries
// the second day while Time points at the first.
type QuizDate struct {
	Time   time.Time
	Day    int
	EndDay int
	Month  time.Month
	Year   int
}

func (d QuizDate) IsRange() bool {
	return d.EndDay != d.Day
}

// English renders the date the way the site titles its quizzes,
// e.g. "28 November 2025" or "23 and 24 November 2025".
func (d QuizDate) English() string {
	if d.IsRange() {
		return fmt.Sprintf("%d and %d %s %d", d.Day, d.EndDay, d.Month.String(), d.Year)
	}
	return fmt.Sprintf("%d %s %d", d.Day, d.Month.String(), d.Year)
}

// Gujarati renders the date with Gujarati month names for cover pages.
func (d QuizDate) Gujarati() string {
	if d.IsRange() {
		return fmt.Sprintf("%d અને %d %s %d", d.Day, d.EndDay, gujaratiMonths[d.Month], d.Year)
	}
	return fmt.Sprintf("%d %s %d", d.Day, gujaratiMonths[d.Month], d.Year)
}

// Filename renders the date as YYYYMMDD for artifact names.
func (d QuizDate) Filename() string {
	return d.Time.Format("20060102")
}

var gujaratiMonths = map[time.Month]string{
	time.January:   "જાન્યુઆરી",
	time.February:  "ફેબ્રુઆરી",
	time.March:     "માર્ચ",
	time.April:     "એપ્રિલ",
	time.May:       "મે",
	time.June:      "જૂન",
	time.July:      "જુલાઈ",
	time.August:    "ઓગસ્ટ",
	time.September: "સપ્ટેમ્બર",
	time.October:   "ઓક્ટોબર",
	time.November:  "નવેમ્બર",
	time.December:  "ડિસેમ્બર",
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

var dateRangePattern = regexp.MustCompile(`(?i)(\d{1,2})-and-(\d{1,2})-([a-z]+)-(\d{4})`)
var dayMonthYearPattern = regexp.MustCompile(`(?i)(\d{1,2})-([a-z]+)-(\d{4})`)
var monthDayYearPattern = regexp.MustCompile(`(?i)([a-z]+)-(\d{1,2})-(\d{4})`)
var numericDatePattern = regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{4})`)

// parseMonth resolves a month slug, full names first and then three
// letter prefixes so "nov" and "november" both land on November.
func parseMonth(name string) (time.Month, bool) {
	lower := strings.ToLower(name)
	for i, full := range monthNames {
		if full == lower {
			return time.Month(i + 1), true
		}
	}

	prefix := lower
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	if prefix == "" {
		return 0, false
	}
	for i, full := range monthNames {
		if strings.HasPrefix(full, prefix) {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// ExtractQuizDate pulls the quiz's date out of its URL slug. The site
// uses several slug styles, tried here from most to least specific so
// the range pattern is not shadowed by its single day suffix.
func ExtractQuizDate(quizUrl string) (QuizDate, error) {
	if groups := dateRangePattern.FindStringSubmatch(quizUrl); groups != nil {
		month, ok := parseMonth(groups[3])
		if ok {
			day := atoi(groups[1])
			return QuizDate{
				Time:   time.Date(atoi(groups[4]), month, day, 0, 0, 0, 0, timezone.Location),
				Day:    day,
				EndDay: atoi(groups[2]),
				Month:  month,
				Year:   atoi(groups[4]),
			}, nil
		}
	}

	if groups := dayMonthYearPattern.FindStringSubmatch(quizUrl); groups != nil {
		month, ok := parseMonth(groups[2])
		if ok {
			day := atoi(groups[1])
			return QuizDate{
				Time:   time.Date(atoi(groups[3]), month, day, 0, 0, 0, 0, timezone.Location),
				Day:    day,
				EndDay: day,
				Month:  month,
				Year:   atoi(groups[3]),
			}, nil
		}
	}

	if groups := monthDayYearPattern.FindStringSubmatch(quizUrl); groups != nil {
		month, ok := parseMonth(groups[1])
		if ok {
			day := atoi(groups[2])
			return QuizDate{
				Time:   time.Date(atoi(groups[3]), month, day, 0, 0, 0, 0, timezone.Location),
				Day:    day,
				EndDay: day,
				Month:  month,
				Year:   atoi(groups[3]),
			}, nil
		}
	}

	if groups := numericDatePattern.FindStringSubmatch(quizUrl); groups != nil {
		day := atoi(groups[1])
		month := atoi(groups[2])
		year := atoi(groups[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, timezone.Location)
			// time.Date normalizes instead of rejecting, spot days
			// like "31-02" by checking it round trips
			if parsed.Day() == day && parsed.Month() == time.Month(month) {
				return QuizDate{
					Time:   parsed,
					Day:    day,
					EndDay: day,
					Month:  time.Month(month),
					Year:   year,
				}, nil
			}
		}
	}

	return QuizDate{}, NoDateInUrl
}
