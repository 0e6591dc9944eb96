package manifest

import (
	"fmt"
	"io"
	"strings"

	"github.com/andygrunwald/vdf"
)

// ParseKeyValues reads a Valve KeyValues (VDF) document.
func ParseKeyValues(r io.Reader) (map[string]interface{}, error) {
	p := vdf.NewParser(r)
	m, err := p.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse vdf: %w", err)
	}
	return m, nil
}

// Lookup returns the value stored under key. VDF keys are matched
// case-insensitively, the way Steam itself reads them.
func Lookup(m map[string]interface{}, key string) (interface{}, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// LookupSection returns the nested record stored under key.
func LookupSection(m map[string]interface{}, key string) (map[string]interface{}, bool) {
	v, ok := Lookup(m, key)
	if !ok {
		return nil, false
	}
	section, ok := v.(map[string]interface{})
	return section, ok
}

// LookupString returns the string value stored under key.
func LookupString(m map[string]interface{}, key string) (string, bool) {
	v, ok := Lookup(m, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
