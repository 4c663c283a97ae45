package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perimetr/gatekeeper/internal/testlib"
	"github.com/perimetr/gatekeeper/stats"
)

func TestNewStatsdTagFormats(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"datadog", "influxdb", "graphite", "DataDog"} {
		factory, err := stats.NewStatsd("127.0.0.1:8125",
			testlib.NoopLogger{}, "gatekeeper", format)
		require.NoError(t, err, format)
		require.NoError(t, factory.Close())
	}
}

func TestNewStatsdUnknownTagFormat(t *testing.T) {
	t.Parallel()

	_, err := stats.NewStatsd("127.0.0.1:8125",
		testlib.NoopLogger{}, "gatekeeper", "syslog")
	assert.Error(t, err)
}

func TestStatsdFactoryMake(t *testing.T) {
	t.Parallel()

	factory, err := stats.NewStatsd("127.0.0.1:8125",
		testlib.NoopLogger{}, "gatekeeper", "datadog")
	require.NoError(t, err)

	defer factory.Close()

	observer := factory.Make()
	require.NotNil(t, observer)

	observer.Shutdown()
}
