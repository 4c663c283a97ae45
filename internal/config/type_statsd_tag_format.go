package config

import (
	"fmt"
	"strconv"
	"strings"
)

type TypeStatsdTagFormat struct {
	Value string
}

func (t *TypeStatsdTagFormat) Set(value string) error {
	switch strings.ToLower(value) {
	case "datadog", "influxdb", "graphite":
		t.Value = strings.ToLower(value)
	default:
		return fmt.Errorf("unknown statsd tag format %s", value)
	}

	return nil
}

func (t TypeStatsdTagFormat) Get(defaultValue string) string {
	if t.Value == "" {
		return defaultValue
	}

	return t.Value
}

func (t *TypeStatsdTagFormat) UnmarshalJSON(data []byte) error {
	return t.Set(strings.Trim(string(data), `"`))
}

func (t TypeStatsdTagFormat) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.Value)), nil
}

func (t TypeStatsdTagFormat) String() string {
	return t.Value
}
