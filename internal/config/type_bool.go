package config

import (
	"fmt"
	"strconv"
	"strings"
)

type TypeBool struct {
	Value bool
}

func (t *TypeBool) Set(value string) error {
	switch strings.ToLower(value) {
	case "true", "yes", "1":
		t.Value = true
	case "false", "no", "0", "":
		t.Value = false
	default:
		return fmt.Errorf("incorrect bool value %s", value)
	}

	return nil
}

func (t TypeBool) Get(defaultValue bool) bool {
	if !t.Value {
		return defaultValue
	}

	return t.Value
}

func (t *TypeBool) UnmarshalJSON(data []byte) error {
	return t.Set(strings.Trim(string(data), `"`))
}

func (t TypeBool) MarshalJSON() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t TypeBool) String() string {
	return strconv.FormatBool(t.Value)
}
