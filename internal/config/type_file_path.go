package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type TypeFilePath struct {
	Value string
}

func (t *TypeFilePath) Set(value string) error {
	stat, err := os.Stat(value)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", value, err)
	}

	switch {
	case stat.IsDir():
		return fmt.Errorf("value is correct filepath but directory (%s)", value)
	case stat.Mode().Perm()&0o400 == 0:
		return fmt.Errorf("value is correct filepath but not readable (%s)", value)
	}

	value, err = filepath.Abs(value)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path (%s): %w", value, err)
	}

	t.Value = value

	return nil
}

func (t TypeFilePath) Get(defaultValue string) string {
	if t.Value == "" {
		return defaultValue
	}

	return t.Value
}

func (t *TypeFilePath) UnmarshalJSON(data []byte) error {
	return t.Set(strings.Trim(string(data), `"`))
}

func (t TypeFilePath) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.Value)), nil
}

func (t TypeFilePath) String() string {
	return t.Value
}
