package signalfilter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fx-calendar-lab/internal/domain"
)

// Window is a UTC time-of-day interval [Start, End) in minutes since midnight.
// Start > End wraps past midnight.
type Window struct {
	Name  string
	Start int
	End   int
}

// Contains reports whether the UTC minute-of-day of t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	t = t.UTC()
	m := t.Hour()*60 + t.Minute()
	if w.Start <= w.End {
		return m >= w.Start && m < w.End
	}
	return m >= w.Start || m < w.End
}

// String renders the window as HH:MM-HH:MM.
func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}

// sessions are the named UTC trading sessions.
var sessions = []Window{
	{Name: "Sydney", Start: 21 * 60, End: 6 * 60},
	{Name: "Tokyo", Start: 0, End: 9 * 60},
	{Name: "London", Start: 7 * 60, End: 16 * 60},
	{Name: "NewYork", Start: 12 * 60, End: 21 * 60},
	{Name: "NYSE", Start: 13*60 + 30, End: 20 * 60},
}

// SessionNames returns the known session names in declaration order.
func SessionNames() []string {
	names := make([]string, 0, len(sessions))
	for _, s := range sessions {
		names = append(names, s.Name)
	}
	return names
}

// Session looks up a named session case-insensitively.
func Session(name string) (Window, error) {
	key := strings.TrimSpace(name)
	for _, s := range sessions {
		if strings.EqualFold(s.Name, key) {
			return s, nil
		}
	}
	return Window{}, fmt.Errorf("%w: unknown session %q (known: %s)",
		domain.ErrInvalidConfig, name, strings.Join(SessionNames(), ", "))
}

// ResolveSessions maps session names to windows. Blank names are ignored.
func ResolveSessions(names []string) ([]Window, error) {
	var out []Window
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		w, err := Session(n)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// ParseWindows parses semicolon-separated HH:MM-HH:MM windows.
func ParseWindows(s string) ([]Window, error) {
	var out []Window
	for _, chunk := range strings.Split(s, ";") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		w, err := ParseWindow(chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// ParseWindow parses one HH:MM-HH:MM window. Equal bounds are rejected.
func ParseWindow(s string) (Window, error) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return Window{}, fmt.Errorf("%w: bad window %q, expected HH:MM-HH:MM", domain.ErrInvalidConfig, s)
	}
	start, err := parseHHMM(a)
	if err != nil {
		return Window{}, fmt.Errorf("%w: bad window %q: %v", domain.ErrInvalidConfig, s, err)
	}
	end, err := parseHHMM(b)
	if err != nil {
		return Window{}, fmt.Errorf("%w: bad window %q: %v", domain.ErrInvalidConfig, s, err)
	}
	if start == end {
		return Window{}, fmt.Errorf("%w: empty window %q", domain.ErrInvalidConfig, s)
	}
	return Window{Name: strings.TrimSpace(s), Start: start, End: end}, nil
}

func parseHHMM(s string) (int, error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("missing ':' in %q", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 || len(ms) != 2 {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	if h == 24 && m != 0 {
		return 0, fmt.Errorf("bad time %q", s)
	}
	return h*60 + m, nil
}
