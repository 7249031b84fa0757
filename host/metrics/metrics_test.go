package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animahead/protocol"
)

func TestObserveDecoderDeltas(t *testing.T) {
	m := NewHeadMetrics(prometheus.NewRegistry())

	m.ObserveDecoder(protocol.DecoderStats{Frames: 5, Valid: 4, Rejected: 1, Resyncs: 2})
	m.ObserveDecoder(protocol.DecoderStats{Frames: 8, Valid: 6, Rejected: 2, Resyncs: 2})

	assert.Equal(t, 6.0, value(t, m.FramesTotal.WithLabelValues("valid")))
	assert.Equal(t, 2.0, value(t, m.FramesTotal.WithLabelValues("rejected")))
	assert.Equal(t, 2.0, value(t, m.ResyncTotal))
}

func TestObserveDecoderFrameCountedBeforeOutcome(t *testing.T) {
	m := NewHeadMetrics(prometheus.NewRegistry())

	// Snapshot taken between the outcome and frame counter updates
	m.ObserveDecoder(protocol.DecoderStats{Frames: 1})
	m.ObserveDecoder(protocol.DecoderStats{Frames: 1, Rejected: 1})

	assert.Equal(t, 0.0, value(t, m.FramesTotal.WithLabelValues("valid")))
	assert.Equal(t, 1.0, value(t, m.FramesTotal.WithLabelValues("rejected")))
}

func TestObserveStatusReply(t *testing.T) {
	m := NewHeadMetrics(prometheus.NewRegistry())

	m.ObserveStatusReply(protocol.StatusValid)
	m.ObserveStatusReply(protocol.StatusInvalid)
	m.ObserveStatusReply(protocol.StatusInvalid)

	assert.Equal(t, 1.0, value(t, m.StatusReplies.WithLabelValues("valid")))
	assert.Equal(t, 2.0, value(t, m.StatusReplies.WithLabelValues("invalid")))
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := NewRegistry()
	m := NewHeadMetrics(reg)
	m.CyclesTotal.Add(3)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "head_cycles_total 3")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// value reads the current value of a counter or gauge
func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))
	if pb.Counter != nil {
		return pb.Counter.GetValue()
	}
	return pb.Gauge.GetValue()
}
