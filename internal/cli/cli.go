package cli

import "github.com/alecthomas/kong"

type CLI struct {
	Run     Run              `kong:"cmd,help='Run gateway.'"`
	Health  Health           `kong:"cmd,help='Check gateway health via metrics endpoint.'"`
	Version kong.VersionFlag `kong:"help='Print version.',short='v'"`
}
