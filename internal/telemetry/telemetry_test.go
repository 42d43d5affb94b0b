package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := Setup(context.Background(), "restodash", "test", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_CreatesProvider(t *testing.T) {
	for _, endpoint := range []string{"192.0.2.1:4318", "http://192.0.2.1:4318"} {
		t.Run(endpoint, func(t *testing.T) {
			// non-routable; nothing is exported because no span is recorded
			shutdown, err := Setup(context.Background(), "restodash", "test", endpoint)
			require.NoError(t, err)
			require.NoError(t, shutdown(context.Background()))
		})
	}
}
