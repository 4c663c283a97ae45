package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/perimetr/gatekeeper/internal/config"
)

type ConfigTestSuite struct {
	suite.Suite

	certFile string
	keyFile  string
	caFile   string
}

func (suite *ConfigTestSuite) SetupTest() {
	dir := suite.T().TempDir()

	suite.certFile = filepath.Join(dir, "cert.pem")
	suite.keyFile = filepath.Join(dir, "key.pem")
	suite.caFile = filepath.Join(dir, "ca.pem")

	for _, path := range []string{suite.certFile, suite.keyFile, suite.caFile} {
		suite.Require().NoError(os.WriteFile(path, []byte("pem"), 0o600))
	}
}

func (suite *ConfigTestSuite) minimalTOML() string {
	return `
bindTo = "0.0.0.0:8888"

[tls]
certFile = "` + suite.certFile + `"
keyFile = "` + suite.keyFile + `"
caFile = "` + suite.caFile + `"

[broadcast]
secret = "market-data-shared-secret"
`
}

func (suite *ConfigTestSuite) TestMinimal() {
	conf, err := config.Parse([]byte(suite.minimalTOML()))
	suite.Require().NoError(err)

	suite.Equal("0.0.0.0:8888", conf.BindTo.Get(""))
	suite.Equal(suite.certFile, conf.TLS.CertFile.Get(""))
	suite.False(conf.TLS.AllowAnonymousClients.Get(false))
	suite.True(conf.Broadcast.Secret.Valid())
}

func (suite *ConfigTestSuite) TestFull() {
	// Top-level keys go before the first table header; appended after
	// minimalTOML they would land inside its last table.
	doc := `
debug = true
concurrency = 128
handshakeTimeout = "10s"
` + suite.minimalTOML() + `
[auth]
sessionTimeout = "30m"

[auth.apiKeys]
"key-1" = "trader-1"

[defense.antiReplay]
enabled = true
maxSize = "512KiB"
errorRate = 0.001

[defense.blocklist]
enabled = true
cidrs = ["10.0.0.0/8"]

[limits]
maxConnectionsPerIp = 20
tokensPerSecond = 500

[limits.ipRateLimit]
enabled = true
perSecond = 5
burst = 10

[stats.prometheus]
enabled = true
bindTo = "127.0.0.1:9401"
httpPath = "/metrics"
metricPrefix = "gatekeeper"

[stats.statsd]
enabled = true
address = "127.0.0.1:8125"
metricPrefix = "gatekeeper"
tagFormat = "datadog"
`

	conf, err := config.Parse([]byte(doc))
	suite.Require().NoError(err)

	suite.True(conf.Debug.Get(false))
	suite.EqualValues(128, conf.Concurrency.Get(0))
	suite.Equal(10*time.Second, conf.HandshakeTimeout.Get(0))
	suite.Equal(30*time.Minute, conf.Auth.SessionTimeout.Get(0))
	suite.Equal("trader-1", conf.Auth.APIKeys["key-1"])
	suite.True(conf.Defense.AntiReplay.Enabled.Get(false))
	suite.EqualValues(512*1024, conf.Defense.AntiReplay.MaxSize.Get(0))
	suite.InDelta(0.001, conf.Defense.AntiReplay.ErrorRate.Get(0), 1e-9)
	suite.Equal([]string{"10.0.0.0/8"}, conf.Defense.Blocklist.CIDRs)
	suite.EqualValues(20, conf.Limits.MaxConnectionsPerIP.Get(0))
	suite.EqualValues(500, conf.Limits.TokensPerSecond.Get(0))
	suite.EqualValues(5, conf.Limits.IPRateLimit.PerSecond.Get(0))
	suite.Equal("/metrics", conf.Stats.Prometheus.HTTPPath.Get(""))
	suite.Equal("datadog", conf.Stats.StatsD.TagFormat.Get(""))
}

func (suite *ConfigTestSuite) TestSecretIsMaskedInString() {
	conf, err := config.Parse([]byte(suite.minimalTOML()))
	suite.Require().NoError(err)

	rendered := conf.String()

	suite.NotContains(rendered, "market-data-shared-secret")
	suite.Contains(rendered, "<masked>")
}

func (suite *ConfigTestSuite) TestMissingSecret() {
	doc := strings.Replace(suite.minimalTOML(),
		`secret = "market-data-shared-secret"`, "", 1)

	_, err := config.Parse([]byte(doc))
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestMissingBindTo() {
	doc := strings.Replace(suite.minimalTOML(),
		`bindTo = "0.0.0.0:8888"`, "", 1)

	_, err := config.Parse([]byte(doc))
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestMissingCAWithClientCerts() {
	doc := strings.Replace(suite.minimalTOML(),
		"caFile = \""+suite.caFile+"\"", "", 1)

	_, err := config.Parse([]byte(doc))
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestAnonymousClientsNeedNoCA() {
	doc := strings.Replace(suite.minimalTOML(),
		"caFile = \""+suite.caFile+"\"",
		"allowAnonymousClients = true", 1)

	conf, err := config.Parse([]byte(doc))
	suite.Require().NoError(err)
	suite.True(conf.TLS.AllowAnonymousClients.Get(false))
}

func (suite *ConfigTestSuite) TestNonMulticastGroup() {
	doc := suite.minimalTOML() + `group = "10.1.2.3"` + "\n"

	_, err := config.Parse([]byte(doc))
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestUnknownField() {
	doc := suite.minimalTOML() + `unknownKnob = true` + "\n"

	_, err := config.Parse([]byte(doc))
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestBadTOML() {
	_, err := config.Parse([]byte("bindTo = ["))
	suite.Error(err)
}

func TestConfig(t *testing.T) {
	t.Parallel()
	suite.Run(t, &ConfigTestSuite{})
}
