package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

type TypeIP struct {
	Value net.IP
}

func (t *TypeIP) Set(value string) error {
	parsed := net.ParseIP(value)
	if parsed == nil {
		return fmt.Errorf("incorrect ip address %s", value)
	}

	t.Value = parsed

	return nil
}

func (t TypeIP) Get(defaultValue net.IP) net.IP {
	if t.Value == nil {
		return defaultValue
	}

	return t.Value
}

func (t *TypeIP) UnmarshalJSON(data []byte) error {
	return t.Set(strings.Trim(string(data), `"`))
}

func (t TypeIP) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

func (t TypeIP) String() string {
	if t.Value == nil {
		return ""
	}

	return t.Value.String()
}
