package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxRangeSpan bounds the number of articles a single ranged reference may expand to.
const MaxRangeSpan = 50

// No Swiss code numbers its articles past six digits.
const maxBoundDigits = 6

var (
	ErrEmptyArticle     = errors.New("empty article number")
	ErrUnsupportedRange = errors.New("unsupported article range")
)

var (
	articlePrefix   = regexp.MustCompile(`(?i)^(?:art\.|article)\s*`)
	singleArticle   = regexp.MustCompile(`^\d+[a-z]?$`)
	articleRefToken = regexp.MustCompile(`^\d+[a-z]?(-\d+[a-z]?)?$`)
)

// ExpandArticleRange expands "139-142" into 139, 140, 141 and 142. A token
// without a range separator is returned as-is, minus any "art." prefix.
// Bounds carrying a letter suffix ("10a-12") are rejected with ErrUnsupportedRange.
func ExpandArticleRange(token string) ([]string, error) {
	token = strings.TrimSpace(articlePrefix.ReplaceAllString(strings.TrimSpace(token), ""))
	token = strings.ToLower(strings.ReplaceAll(token, "–", "-"))
	if token == "" {
		return nil, ErrEmptyArticle
	}

	lowRaw, highRaw, isRange := strings.Cut(token, "-")
	if !isRange {
		return []string{token}, nil
	}

	lowRaw, highRaw = strings.TrimSpace(lowRaw), strings.TrimSpace(highRaw)
	if len(lowRaw) > maxBoundDigits || len(highRaw) > maxBoundDigits {
		return nil, fmt.Errorf("%w: %q has an out-of-range bound", ErrUnsupportedRange, token)
	}

	low, err := strconv.Atoi(lowRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: lower bound %q is not a plain number", ErrUnsupportedRange, lowRaw)
	}
	high, err := strconv.Atoi(highRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: upper bound %q is not a plain number", ErrUnsupportedRange, highRaw)
	}
	if high < low {
		return nil, fmt.Errorf("%w: %d-%d is descending", ErrUnsupportedRange, low, high)
	}
	if high-low >= MaxRangeSpan {
		return nil, fmt.Errorf("%w: %d-%d spans more than %d articles", ErrUnsupportedRange, low, high, MaxRangeSpan)
	}

	numbers := make([]string, 0, high-low+1)
	for n := low; n <= high; n++ {
		numbers = append(numbers, strconv.Itoa(n))
	}
	return numbers, nil
}

// IsSingleArticle reports whether number denotes exactly one article ("266g").
func IsSingleArticle(number string) bool {
	return singleArticle.MatchString(number)
}

// IsArticleToken reports whether token is a single article or an article range.
func IsArticleToken(token string) bool {
	return articleRefToken.MatchString(token)
}
