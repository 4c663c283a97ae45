package cli

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/perimetr/gatekeeper/internal/config"
)

// healthCheckTimeout keeps container healthchecks from flapping on
// incidental latency.
const healthCheckTimeout = 5 * time.Second

// Health checks gateway liveness. If Prometheus is enabled it expects
// a 200 from the metrics endpoint, otherwise it falls back to a TCP
// connect against the gateway port.
type Health struct {
	ConfigPath string `kong:"arg,required,type='existingfile',help='Path to the configuration file.',name='config-path'"` //nolint: lll
}

func (h Health) Run(cli *CLI, version string) error {
	content, err := os.ReadFile(h.ConfigPath)
	if err != nil {
		return fmt.Errorf("cannot read config file: %w", err)
	}

	conf, err := config.Parse(content)
	if err != nil {
		return fmt.Errorf("cannot parse config: %w", err)
	}

	if conf.Stats.Prometheus.Enabled.Get(false) {
		// The healthcheck always runs next to the gateway, so only the
		// port of the bind address matters.
		_, port, err := net.SplitHostPort(conf.Stats.Prometheus.BindTo.Get(""))
		if err != nil {
			return fmt.Errorf("cannot parse prometheus address: %w", err)
		}

		url := fmt.Sprintf("http://127.0.0.1:%s%s",
			port, conf.Stats.Prometheus.HTTPPath.Get(defaultHTTPPath))

		return checkHTTP(url)
	}

	return checkTCP(conf.BindTo.Get(""))
}

func checkHTTP(url string) error {
	client := &http.Client{
		Timeout: healthCheckTimeout,
	}

	resp, err := client.Get(url) //nolint: noctx
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body) //nolint: errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}

	return nil
}

func checkTCP(addr string) error {
	conn, err := net.DialTimeout("tcp", addr, healthCheckTimeout)
	if err != nil {
		return fmt.Errorf("health check tcp connect failed: %w", err)
	}

	conn.Close()

	return nil
}
