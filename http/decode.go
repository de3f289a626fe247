package http

import (
	"fmt"
	"sort"
)

// Option keys understood by DecodeOptions.
const (
	KeyHeaders  = "headers"
	KeyBody     = "body"
	KeyReadBody = "read_body"
)

// DecodeOptions converts a loosely typed option set, as produced by a host
// runtime, into Options. Unknown keys are ignored.
//
// headers may be a Headers value, a map[string]string, a map[string]any whose
// values are strings (applied in sorted key order), or a list of two-element
// [name, value] string pairs (applied in list order). Any other shape, or a
// non-string name or value, fails with InvalidHeaderEntry.
//
// body must be a string or nil, otherwise InvalidBodyType.
//
// read_body is read by truthiness: nil and false disable body reading, any
// other value enables it. A missing key means true.
func DecodeOptions(raw map[string]any) (*Options, error) {
	opts := &Options{}
	if raw == nil {
		return opts, nil
	}

	if v, ok := raw[KeyHeaders]; ok && v != nil {
		headers, err := decodeHeaders(v)
		if err != nil {
			return nil, newError(InvalidHeaderEntry, "", "", err)
		}
		opts.Headers = headers
	}

	if v, ok := raw[KeyBody]; ok && v != nil {
		s, isString := v.(string)
		if !isString {
			return nil, newError(InvalidBodyType, "", "", fmt.Errorf("expected a string for body, got %T", v))
		}
		opts.Body = &s
	}

	if v, ok := raw[KeyReadBody]; ok {
		opts.ReadBody = Bool(truthy(v))
	}

	return opts, nil
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

func decodeHeaders(v any) (Headers, error) {
	switch h := v.(type) {
	case Headers:
		return h, nil
	case []Header:
		return Headers(h), nil
	case map[string]string:
		headers := make(Headers, 0, len(h))
		for _, name := range sortedKeys(h) {
			headers = headers.Add(name, h[name])
		}
		return headers, nil
	case map[string]any:
		keys := make([]string, 0, len(h))
		for name := range h {
			keys = append(keys, name)
		}
		sort.Strings(keys)
		headers := make(Headers, 0, len(h))
		for _, name := range keys {
			value, ok := h[name].(string)
			if !ok {
				return nil, fmt.Errorf("value for %q must be a string, got %T", name, h[name])
			}
			headers = headers.Add(name, value)
		}
		return headers, nil
	case [][]string:
		headers := make(Headers, 0, len(h))
		for i, pair := range h {
			if len(pair) != 2 {
				return nil, fmt.Errorf("entry %d: expected a [name, value] pair, got %d elements", i, len(pair))
			}
			headers = headers.Add(pair[0], pair[1])
		}
		return headers, nil
	case []any:
		headers := make(Headers, 0, len(h))
		for i, entry := range h {
			name, value, err := decodePair(entry)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			headers = headers.Add(name, value)
		}
		return headers, nil
	default:
		return nil, fmt.Errorf("expected a mapping of header names to values, got %T", v)
	}
}

func decodePair(entry any) (string, string, error) {
	var pair []any
	switch e := entry.(type) {
	case []any:
		pair = e
	case []string:
		pair = make([]any, len(e))
		for i := range e {
			pair[i] = e[i]
		}
	default:
		return "", "", fmt.Errorf("expected a [name, value] pair, got %T", entry)
	}
	if len(pair) != 2 {
		return "", "", fmt.Errorf("expected a [name, value] pair, got %d elements", len(pair))
	}
	name, ok := pair[0].(string)
	if !ok {
		return "", "", fmt.Errorf("header name must be a string, got %T", pair[0])
	}
	value, ok := pair[1].(string)
	if !ok {
		return "", "", fmt.Errorf("value for %q must be a string, got %T", name, pair[1])
	}
	return name, value, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
