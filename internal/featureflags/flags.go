// Package featureflags evaluates the optional behaviors of the web client.
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Known flags.
const (
	// ViewCounter sends the view increment when a post is opened.
	ViewCounter = "view_counter"
	// ImageNormalize re-encodes uploads before they are sent upstream.
	ImageNormalize = "image_normalize"
	// ShareLinks shows a share link on listing cards.
	ShareLinks = "share_links"
)

// Defaults turns every known flag on.
const Defaults = ViewCounter + "=on," + ImageNormalize + "=on," + ShareLinks + "=on"

// Set holds flags parsed from "name=value" pairs, e.g.
// "view_counter=on,share_links=25%,image_normalize=off".
type Set struct {
	values map[string]string
}

// Parse builds a Set. Malformed pairs are skipped; the last value of a
// repeated name wins.
func Parse(raw string) *Set {
	values := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = clean(name), clean(value)
		if name == "" || value == "" {
			continue
		}
		values[name] = value
	}
	return &Set{values: values}
}

// On reports whether a flag is on for everyone. Percentage rollouts count as
// off here because there is no subject to bucket.
func (s *Set) On(name string) bool {
	return s.For(name, "")
}

// For evaluates a flag for one subject (the session email). Accepted values
// are on/true/1, off/false/0 and N% for a stable per-subject rollout.
func (s *Set) For(name, subject string) bool {
	if s == nil {
		return false
	}
	value, ok := s.values[clean(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case subject == "":
		return false
	}
	return bucket(name, subject) < pct
}

// Names lists the configured flag names in order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate returns every configured flag as seen by subject; used by the
// readiness endpoint and templates.
func (s *Set) Evaluate(subject string) map[string]bool {
	out := make(map[string]bool)
	for _, name := range s.Names() {
		out[name] = s.For(name, subject)
	}
	return out
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name, subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(clean(name) + ":" + strings.ToLower(subject)))
	return int(h.Sum32() % 100)
}
