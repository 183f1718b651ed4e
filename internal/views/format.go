package views

import (
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"avocado/internal/service"
)

// LoadingText is shown for missing or unparsable dates.
const LoadingText = "Loading .."

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatDate renders a timestamp as "YYYY-MM-DD HH:mm" in local time.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return LoadingText
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t.Local().Format("2006-01-02 15:04")
		}
	}
	return LoadingText
}

// FormatCount abbreviates views, likes and comment counts:
// 1.2M, 123k, 12.3k, 1.2k, 999.
func FormatCount(n int) string {
	v := float64(n)
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", roundTo(v/1_000_000, 1))
	case v >= 100_000:
		return fmt.Sprintf("%.0fk", math.Round(v/1000))
	case v >= 1000:
		return fmt.Sprintf("%.1fk", roundTo(v/1000, 1))
	default:
		return fmt.Sprintf("%d", n)
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate":  FormatDate,
		"formatCount": FormatCount,
		"truncate":    func(s string, n int) string { return service.Truncate(s, n) },
		"dict":        dict,
	}
}

// dict builds a map from key/value pairs so partials can take several arguments.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}
