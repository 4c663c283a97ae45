package testlib

import "github.com/perimetr/gatekeeper/seclayer"

// NoopLogger is a seclayer.Logger which discards everything. Tests use
// it where log output is irrelevant.
type NoopLogger struct{}

func (n NoopLogger) Named(_ string) seclayer.Logger          { return n }
func (n NoopLogger) BindInt(_ string, _ int) seclayer.Logger { return n }
func (n NoopLogger) BindStr(_, _ string) seclayer.Logger     { return n }

func (n NoopLogger) Printf(_ string, _ ...interface{}) {}

func (n NoopLogger) Info(_ string)                  {}
func (n NoopLogger) InfoError(_ string, _ error)    {}
func (n NoopLogger) Warning(_ string)               {}
func (n NoopLogger) WarningError(_ string, _ error) {}
func (n NoopLogger) Debug(_ string)                 {}
func (n NoopLogger) DebugError(_ string, _ error)   {}
