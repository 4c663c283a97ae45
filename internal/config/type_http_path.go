package config

import (
	"fmt"
	"strconv"
	"strings"
)

type TypeHTTPPath struct {
	Value string
}

func (t *TypeHTTPPath) Set(value string) error {
	if !strings.HasPrefix(value, "/") {
		return fmt.Errorf("http path should start with / (%s)", value)
	}

	t.Value = value

	return nil
}

func (t TypeHTTPPath) Get(defaultValue string) string {
	if t.Value == "" {
		return defaultValue
	}

	return t.Value
}

func (t *TypeHTTPPath) UnmarshalJSON(data []byte) error {
	return t.Set(strings.Trim(string(data), `"`))
}

func (t TypeHTTPPath) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.Value)), nil
}

func (t TypeHTTPPath) String() string {
	return t.Value
}
