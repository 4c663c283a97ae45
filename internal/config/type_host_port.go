package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

type TypeHostPort struct {
	Value string
}

func (t *TypeHostPort) Set(value string) error {
	host, port, err := net.SplitHostPort(value)
	if err != nil {
		return fmt.Errorf("incorrect host:port value (%s): %w", value, err)
	}

	portNo, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return fmt.Errorf("incorrect port (%s): %w", port, err)
	}

	if portNo == 0 {
		return fmt.Errorf("port cannot be 0 (%s)", value)
	}

	t.Value = net.JoinHostPort(host, port)

	return nil
}

func (t TypeHostPort) Get(defaultValue string) string {
	if t.Value == "" {
		return defaultValue
	}

	return t.Value
}

func (t *TypeHostPort) UnmarshalJSON(data []byte) error {
	return t.Set(strings.Trim(string(data), `"`))
}

func (t TypeHostPort) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.Value)), nil
}

func (t TypeHostPort) String() string {
	return t.Value
}
