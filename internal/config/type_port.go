package config

import (
	"fmt"
	"strconv"
)

type TypePort struct {
	Value uint
}

func (t *TypePort) Set(value string) error {
	parsed, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		return fmt.Errorf("incorrect port (%s): %w", value, err)
	}

	if parsed == 0 {
		return fmt.Errorf("port cannot be 0 (%s)", value)
	}

	t.Value = uint(parsed)

	return nil
}

func (t TypePort) Get(defaultValue uint) uint {
	if t.Value == 0 {
		return defaultValue
	}

	return t.Value
}

func (t *TypePort) UnmarshalJSON(data []byte) error {
	return t.Set(string(data))
}

func (t TypePort) MarshalJSON() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t TypePort) String() string {
	return strconv.FormatUint(uint64(t.Value), 10)
}
