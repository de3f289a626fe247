package inspect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotJSON is returned when a body that should be JSON does not parse.
var ErrNotJSON = errors.New("body is not valid JSON")

// Query extracts a value from a JSON body using a JSONPath-style expression
// such as $.users[0].name or $['content-type']. Strings are returned
// unquoted, null as "null", objects and arrays as raw JSON.
func Query(body []byte, path string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", ErrNotJSON
	}

	gpath, err := toGjsonPath(path)
	if err != nil {
		return "", err
	}
	if gpath == "" {
		return string(body), nil
	}

	result := gjson.GetBytes(body, gpath)
	if !result.Exists() {
		return "", fmt.Errorf("path not found: %s", path)
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// toGjsonPath converts $.a.b[0]['c.d'] into a.b.0.c\.d. An empty result means
// the root.
func toGjsonPath(path string) (string, error) {
	p := strings.TrimSpace(path)
	p = strings.TrimPrefix(p, "$")

	var parts []string
	for len(p) > 0 {
		switch p[0] {
		case '.':
			p = p[1:]
			end := strings.IndexAny(p, ".[")
			if end < 0 {
				end = len(p)
			}
			if end == 0 {
				return "", fmt.Errorf("empty segment in path %q", path)
			}
			parts = append(parts, escape(p[:end]))
			p = p[end:]
		case '[':
			end := strings.IndexByte(p, ']')
			if end < 0 {
				return "", fmt.Errorf("unclosed bracket in path %q", path)
			}
			seg := p[1:end]
			if len(seg) >= 2 && (seg[0] == '\'' || seg[0] == '"') && seg[len(seg)-1] == seg[0] {
				seg = seg[1 : len(seg)-1]
			}
			if seg == "" {
				return "", fmt.Errorf("empty segment in path %q", path)
			}
			parts = append(parts, escape(seg))
			p = p[end+1:]
		default:
			// bare leading name, e.g. "users.0"
			end := strings.IndexAny(p, ".[")
			if end < 0 {
				end = len(p)
			}
			parts = append(parts, escape(p[:end]))
			p = p[end:]
		}
	}
	return strings.Join(parts, "."), nil
}

var gjsonEscaper = strings.NewReplacer(
	`\`, `\\`,
	".", `\.`,
	"*", `\*`,
	"?", `\?`,
	"|", `\|`,
	"#", `\#`,
	"@", `\@`,
)

func escape(seg string) string {
	return gjsonEscaper.Replace(seg)
}
