package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/units"
)

type TypeBytes struct {
	Value units.Base2Bytes
}

func (t *TypeBytes) Set(value string) error {
	// Accept any casing: "512kib" and "512KiB" mean the same thing.
	normalized := strings.ReplaceAll(strings.ToUpper(value), "IB", "iB")

	parsed, err := units.ParseBase2Bytes(normalized)
	if err != nil {
		return fmt.Errorf("incorrect bytes value (%s): %w", value, err)
	}

	if parsed < 0 {
		return fmt.Errorf("%s should be a positive bytes value", value)
	}

	t.Value = parsed

	return nil
}

func (t TypeBytes) Get(defaultValue units.Base2Bytes) units.Base2Bytes {
	if t.Value == 0 {
		return defaultValue
	}

	return t.Value
}

func (t *TypeBytes) UnmarshalJSON(data []byte) error {
	return t.Set(strings.Trim(string(data), `"`))
}

func (t TypeBytes) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

func (t TypeBytes) String() string {
	if t.Value == 0 {
		return ""
	}

	return t.Value.String()
}
