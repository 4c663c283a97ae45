package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml"
)

type Optional struct {
	Enabled TypeBool `json:"enabled"`
}

type Config struct {
	Debug            TypeBool        `json:"debug"`
	BindTo           TypeHostPort    `json:"bindTo"`
	Concurrency      TypeConcurrency `json:"concurrency"`
	HandshakeTimeout TypeDuration    `json:"handshakeTimeout"`
	TLS              struct {
		CertFile TypeFilePath `json:"certFile"`
		KeyFile  TypeFilePath `json:"keyFile"`
		CAFile   TypeFilePath `json:"caFile"`

		// Client certificates are demanded unless this is set.
		AllowAnonymousClients TypeBool `json:"allowAnonymousClients"`
	} `json:"tls"`
	Broadcast struct {
		Secret TypeHMACSecret `json:"secret"`
		Group  TypeIP         `json:"group"`
		Port   TypePort       `json:"port"`
	} `json:"broadcast"`
	Auth struct {
		SessionTimeout TypeDuration      `json:"sessionTimeout"`
		APIKeys        map[string]string `json:"apiKeys"`
	} `json:"auth"`
	Defense struct {
		AntiReplay struct {
			Optional

			MaxSize   TypeBytes     `json:"maxSize"`
			ErrorRate TypeErrorRate `json:"errorRate"`
		} `json:"antiReplay"`
		Blocklist struct {
			Optional

			CIDRs []string `json:"cidrs"`
		} `json:"blocklist"`
	} `json:"defense"`
	Limits struct {
		MaxConnectionsPerIP TypeConcurrency `json:"maxConnectionsPerIp"`
		TokensPerSecond     TypeRateLimit   `json:"tokensPerSecond"`
		IPRateLimit         struct {
			Optional

			PerSecond TypeRateLimit   `json:"perSecond"`
			Burst     TypeConcurrency `json:"burst"`
		} `json:"ipRateLimit"`
	} `json:"limits"`
	Stats struct {
		StatsD struct {
			Optional

			Address      TypeHostPort        `json:"address"`
			MetricPrefix TypeMetricPrefix    `json:"metricPrefix"`
			TagFormat    TypeStatsdTagFormat `json:"tagFormat"`
		} `json:"statsd"`
		Prometheus struct {
			Optional

			BindTo       TypeHostPort     `json:"bindTo"`
			HTTPPath     TypeHTTPPath     `json:"httpPath"`
			MetricPrefix TypeMetricPrefix `json:"metricPrefix"`
		} `json:"prometheus"`
	} `json:"stats"`
}

func (c *Config) Validate() error { //nolint: cyclop
	if !c.Broadcast.Secret.Valid() {
		return fmt.Errorf("broadcast.secret is required")
	}

	if c.BindTo.Get("") == "" {
		return fmt.Errorf("incorrect bind-to parameter %s", c.BindTo.String())
	}

	if c.TLS.CertFile.Get("") == "" || c.TLS.KeyFile.Get("") == "" {
		return fmt.Errorf("tls.certFile and tls.keyFile are required")
	}

	if !c.TLS.AllowAnonymousClients.Get(false) && c.TLS.CAFile.Get("") == "" {
		return fmt.Errorf("tls.caFile is required when client certificates are")
	}

	if group := c.Broadcast.Group.Value; group != nil && !group.IsMulticast() {
		return fmt.Errorf("broadcast.group %s is not a multicast address", group)
	}

	if c.Limits.IPRateLimit.Enabled.Get(false) && c.Limits.IPRateLimit.PerSecond.Value == 0 {
		return fmt.Errorf("ipRateLimit.perSecond must be > 0 when rate limiting is enabled")
	}

	if c.Stats.Prometheus.Enabled.Get(false) && c.Stats.Prometheus.BindTo.Get("") == "" {
		return fmt.Errorf("prometheus.bindTo is required when prometheus is enabled")
	}

	if c.Stats.StatsD.Enabled.Get(false) && c.Stats.StatsD.Address.Get("") == "" {
		return fmt.Errorf("statsd.address is required when statsd is enabled")
	}

	return nil
}

// String renders the config as one JSON line. The broadcast secret is
// masked by its type, so the output is safe for logs.
func (c *Config) String() string {
	buf := &bytes.Buffer{}
	encoder := json.NewEncoder(buf)

	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(c); err != nil {
		return "{}"
	}

	return buf.String()
}

// Parse reads a TOML document into a validated Config. The document is
// converted to JSON first so every Type* wrapper keeps a single
// unmarshalling path.
func Parse(rawData []byte) (*Config, error) {
	jsonBuf := &bytes.Buffer{}

	if err := convertTOMLToJSON(rawData, jsonBuf); err != nil {
		return nil, fmt.Errorf("cannot convert toml to json: %w", err)
	}

	conf := &Config{}
	jsonDecoder := json.NewDecoder(jsonBuf)

	jsonDecoder.DisallowUnknownFields()

	if err := jsonDecoder.Decode(conf); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return conf, nil
}

func convertTOMLToJSON(rawData []byte, buf *bytes.Buffer) error {
	dataMap := map[string]interface{}{}

	if err := toml.Unmarshal(rawData, &dataMap); err != nil {
		return fmt.Errorf("cannot parse toml: %w", err)
	}

	if err := json.NewEncoder(buf).Encode(dataMap); err != nil {
		return fmt.Errorf("cannot encode json: %w", err)
	}

	return nil
}
