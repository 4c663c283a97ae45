package config

import (
	"fmt"
	"strconv"
	"strings"
)

type TypeMetricPrefix struct {
	Value string
}

func (t *TypeMetricPrefix) Set(value string) error {
	if value == "" {
		return fmt.Errorf("metric prefix cannot be empty")
	}

	for _, char := range value {
		isOk := (char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_'
		if !isOk {
			return fmt.Errorf("incorrect metric prefix %s", value)
		}
	}

	t.Value = value

	return nil
}

func (t TypeMetricPrefix) Get(defaultValue string) string {
	if t.Value == "" {
		return defaultValue
	}

	return t.Value
}

func (t *TypeMetricPrefix) UnmarshalJSON(data []byte) error {
	return t.Set(strings.Trim(string(data), `"`))
}

func (t TypeMetricPrefix) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.Value)), nil
}

func (t TypeMetricPrefix) String() string {
	return t.Value
}
