package adapters

import (
	"errors"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ErrNoCount = errors.New("no_count_found")

// ParseApproxCount parses human-formatted counts such as "12.3K", "1,234"
// or "4.5M" into an integer.
func ParseApproxCount(raw string) (int64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, ErrNoCount
	}

	multiplier := float64(1)
	switch {
	case strings.HasSuffix(value, "K"), strings.HasSuffix(value, "k"):
		multiplier = 1_000
		value = value[:len(value)-1]
	case strings.HasSuffix(value, "M"), strings.HasSuffix(value, "m"):
		multiplier = 1_000_000
		value = value[:len(value)-1]
	case strings.HasSuffix(value, "B"), strings.HasSuffix(value, "b"):
		multiplier = 1_000_000_000
		value = value[:len(value)-1]
	}

	value = strings.ReplaceAll(value, ",", "")
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, ErrNoCount
	}
	if parsed < 0 {
		return 0, ErrNoCount
	}
	return int64(parsed * multiplier), nil
}

// CountBefore finds the count immediately preceding label in text, e.g.
// CountBefore("1,234 Followers, 56 Following", "Followers") == 1234.
func CountBefore(text, label string) (int64, error) {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(label))
	if idx <= 0 {
		return 0, ErrNoCount
	}

	head := strings.TrimSpace(text[:idx])
	fields := strings.Fields(head)
	if len(fields) == 0 {
		return 0, ErrNoCount
	}
	return ParseApproxCount(fields[len(fields)-1])
}

// MetaContent returns the content attribute of the first matching meta tag.
func MetaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find(`meta[property="` + property + `"]`).Attr("content")
	if content == "" {
		content, _ = doc.Find(`meta[name="` + property + `"]`).Attr("content")
	}
	return strings.TrimSpace(content)
}

// JSONStringField pulls the value of a `"key":"value"` pair out of embedded
// page JSON without unmarshalling the whole blob.
func JSONStringField(html, key string) string {
	marker := `"` + key + `":"`
	idx := strings.Index(html, marker)
	if idx < 0 {
		return ""
	}
	rest := html[idx+len(marker):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// JSONNumberField pulls the value of a `"key":123` pair out of embedded
// page JSON.
func JSONNumberField(html, key string) (int64, bool) {
	marker := `"` + key + `":`
	idx := strings.Index(html, marker)
	if idx < 0 {
		return 0, false
	}
	rest := html[idx+len(marker):]
	end := 0
	for end < len(rest) && (rest[end] >= '0' && rest[end] <= '9') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	parsed, err := strconv.ParseInt(rest[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
