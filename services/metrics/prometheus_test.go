package metricsvc

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	r := NewPrometheusRecorder("Masomo")

	r.Generated()
	r.Generated()
	r.Uploaded()
	r.UploadFailed()
	r.UploadFailed()
	r.UploadFailed()
	r.Exported()
	r.Pruned(4)
	r.Pruned(0)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{name: "generated", got: testutil.ToFloat64(r.generated), want: 2},
		{name: "upload success", got: testutil.ToFloat64(r.uploads.WithLabelValues("success")), want: 1},
		{name: "upload failure", got: testutil.ToFloat64(r.uploads.WithLabelValues("failure")), want: 3},
		{name: "exported", got: testutil.ToFloat64(r.exported), want: 1},
		{name: "pruned", got: testutil.ToFloat64(r.pruned), want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	count, err := testutil.GatherAndCount(r.Registry(),
		"masomo_certificates_generated_total",
		"masomo_certificates_uploads_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
