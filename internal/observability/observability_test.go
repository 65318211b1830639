package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracing(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TracingConfig
		wantErr bool
	}{
		{"disabled", TracingConfig{Enabled: false}, false},
		{"none exporter", TracingConfig{Enabled: true, Exporter: "none"}, false},
		{"unknown exporter", TracingConfig{Enabled: true, Exporter: "carrier-pigeon"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitTracing(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			_, span := StartSpan(context.Background(), "test.span")
			assert.NotNil(t, span)
			span.End()
		})
	}

	assert.NoError(t, ShutdownTracing(context.Background()))
}

func TestRecordMetrics(t *testing.T) {
	InitMetrics()
	InitMetrics()

	before := testutil.ToFloat64(mailSentTotal.WithLabelValues("metrics-test", ChannelPeer))
	RecordMailSent("metrics-test", ChannelPeer)
	RecordMailSent("metrics-test", ChannelPeer)
	assert.Equal(t, before+2, testutil.ToFloat64(mailSentTotal.WithLabelValues("metrics-test", ChannelPeer)))

	RecordMailReceived("metrics-test", ChannelObserver)
	assert.Equal(t, 1.0, testutil.ToFloat64(mailReceivedTotal.WithLabelValues("metrics-test", ChannelObserver)))

	RecordSleepInterrupted("metrics-test")
	assert.Equal(t, 1.0, testutil.ToFloat64(sleepInterruptedTotal.WithLabelValues("metrics-test")))

	RecordJob("metrics-test", OutcomeStopped, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(jobsTotal.WithLabelValues("metrics-test", OutcomeStopped)))

	base := testutil.ToFloat64(runningEnvironments)
	EnvironmentStarted()
	assert.Equal(t, base+1, testutil.ToFloat64(runningEnvironments))
	EnvironmentStopped()
	assert.Equal(t, base, testutil.ToFloat64(runningEnvironments))
}

func TestServerHandler(t *testing.T) {
	InitMetrics()
	srv := NewServer(0)

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Positive(t, resp.NumGoroutines)
	})

	t.Run("metrics", func(t *testing.T) {
		RecordMailSent("server-test", ChannelPeer)

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "amas_mail_sent_total")
	})

	assert.NoError(t, srv.Shutdown(context.Background()))
}
