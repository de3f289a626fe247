package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// IsText reports whether body is safe to print: valid UTF-8 whose detected
// type is text or JSON-like.
func IsText(body []byte) bool {
	if len(body) == 0 {
		return true
	}
	if !utf8.Valid(body) {
		return false
	}
	for mt := mimetype.Detect(body); mt != nil; mt = mt.Parent() {
		if strings.HasPrefix(mt.String(), "text/") || mt.Is("application/json") {
			return true
		}
	}
	return false
}

// Summarize describes a binary body as "<N bytes, mime>".
func Summarize(body []byte) string {
	return fmt.Sprintf("<%d bytes, %s>", len(body), mimetype.Detect(body).String())
}

// RenderBody pretty-prints JSON, passes other text through and summarizes
// binary content.
func RenderBody(body []byte) string {
	if !IsText(body) {
		return Summarize(body)
	}
	return formatJSONString(string(body))
}

// structuredBody converts a body into something JSON/YAML encoders can embed:
// parsed JSON when possible, a string for text, a summary for binary. A nil
// body stays nil.
func structuredBody(body []byte) any {
	if body == nil {
		return nil
	}
	if !IsText(body) {
		return Summarize(body)
	}
	var parsed any
	if err := json.Unmarshal(body, &parsed); err == nil {
		return parsed
	}
	return string(body)
}

// formatJSONString attempts to pretty-print a JSON string
func formatJSONString(s string) string {
	var prettyJSON bytes.Buffer
	err := json.Indent(&prettyJSON, []byte(s), "  ", "  ")
	if err != nil {
		return s
	}
	return prettyJSON.String()
}
