package remote

import "time"

// Field accessors used by the codecs. Missing or mistyped fields yield the
// zero value; the store is schemaless and documents written by older
// clients may lack fields.

func Str(v any) string {
	s, _ := v.(string)
	return s
}

func Num(v any) float64 {
	n, _ := v.(float64)
	return n
}

func Bool(v any) bool {
	b, _ := v.(bool)
	return b
}

func Strs(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}

		return out
	}

	return nil
}

// Stamp parses a server timestamp field (RFC 3339).
func Stamp(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}

	return t
}

// Date parses a calendar-date field ("2006-01-02"). Dates are stored as
// strings so lexical order matches chronological order.
func Date(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}
	}

	return t
}
