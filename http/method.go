package http

import (
	"fmt"
	"strings"
)

// Method is one of the five verbs the executor supports.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodPatch  Method = "PATCH"
)

// Methods lists the supported verbs in a stable order.
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch}

// ParseMethod accepts a verb in any letter case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", newError(InvalidMethod, s, "", fmt.Errorf("unsupported method %q", s))
	}
	return m, nil
}

// Valid reports whether m is a supported verb.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch:
		return true
	}
	return false
}

func (m Method) String() string {
	return string(m)
}
