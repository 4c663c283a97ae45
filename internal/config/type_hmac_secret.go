package config

import (
	"fmt"
	"strconv"
	"strings"
)

// maxSecretLen mirrors the longest secret the security layer accepts.
const maxSecretLen = 64

// TypeHMACSecret holds the broadcast shared secret. It never leaks
// into serialized or logged output: MarshalJSON and String emit a mask.
type TypeHMACSecret struct {
	Value []byte
}

func (t *TypeHMACSecret) Set(value string) error {
	if value == "" {
		return fmt.Errorf("secret cannot be empty")
	}

	if len(value) > maxSecretLen {
		return fmt.Errorf("secret of %d bytes is too long", len(value))
	}

	t.Value = []byte(value)

	return nil
}

func (t TypeHMACSecret) Valid() bool {
	return len(t.Value) > 0
}

func (t *TypeHMACSecret) UnmarshalJSON(data []byte) error {
	return t.Set(strings.Trim(string(data), `"`))
}

func (t TypeHMACSecret) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

func (t TypeHMACSecret) String() string {
	if len(t.Value) == 0 {
		return ""
	}

	return "<masked>"
}
