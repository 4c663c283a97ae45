package cli

import (
	"fmt"
	"os"

	"github.com/perimetr/gatekeeper/internal/config"
)

type Run struct {
	ConfigPath string `kong:"arg,required,type='existingfile',help='Path to the configuration file.',name='config-path'"` //nolint: lll
}

func (r *Run) Run(cli *CLI, version string) error {
	content, err := os.ReadFile(r.ConfigPath)
	if err != nil {
		return fmt.Errorf("cannot read config file: %w", err)
	}

	conf, err := config.Parse(content)
	if err != nil {
		return fmt.Errorf("cannot parse config: %w", err)
	}

	return runGateway(conf, version)
}
