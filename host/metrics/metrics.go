package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"animahead/core"
	"animahead/protocol"
)

// NewRegistry creates a registry with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// HeadMetrics are the link and actuator metrics of a simulated head
type HeadMetrics struct {
	FramesTotal    *prometheus.CounterVec // labels: result=valid|rejected
	ResyncTotal    prometheus.Counter
	FrameValid     prometheus.Gauge
	EncoderLock    prometheus.Gauge
	PulseWidth     *prometheus.GaugeVec // labels: actuator
	DriveSpeed     *prometheus.GaugeVec // labels: actuator
	EncoderCount   *prometheus.GaugeVec // labels: actuator
	CyclesTotal    prometheus.Counter
	StatusReplies  *prometheus.CounterVec // labels: reply=valid|invalid
	UplinkSent     prometheus.Counter
	UplinkThrottle prometheus.Counter

	last protocol.DecoderStats
}

// NewHeadMetrics registers and returns the head metrics
func NewHeadMetrics(reg prometheus.Registerer) *HeadMetrics {
	m := &HeadMetrics{
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "head_frames_total",
			Help: "Completed command frames by checksum result.",
		}, []string{"result"}),
		ResyncTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "head_resync_total",
			Help: "Marker bytes that restarted a partial frame.",
		}),
		FrameValid: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "head_frame_valid",
			Help: "1 if the most recent frame passed its checksum.",
		}),
		EncoderLock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "head_encoder_lock",
			Help: "1 while the active command holds the encoder lock.",
		}),
		PulseWidth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "head_pulse_width_us",
			Help: "Servo pulse width commanded by the last cycle.",
		}, []string{"actuator"}),
		DriveSpeed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "head_drive_speed",
			Help: "Motor drive fraction commanded by the last cycle.",
		}, []string{"actuator"}),
		EncoderCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "head_encoder_count",
			Help: "Encoder count seen by the last cycle.",
		}, []string{"actuator"}),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "head_cycles_total",
			Help: "Control cycles run.",
		}),
		StatusReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "head_status_replies_total",
			Help: "Status query replies by value.",
		}, []string{"reply"}),
		UplinkSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "head_uplink_frames_total",
			Help: "Frames written by the uplink.",
		}),
		UplinkThrottle: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "head_uplink_throttled_total",
			Help: "Uplink sends that waited on the rate limiter.",
		}),
	}
	reg.MustRegister(m.FramesTotal, m.ResyncTotal, m.FrameValid, m.EncoderLock,
		m.PulseWidth, m.DriveSpeed, m.EncoderCount, m.CyclesTotal,
		m.StatusReplies, m.UplinkSent, m.UplinkThrottle)
	return m
}

// ObserveDecoder adds decoder counter deltas since the previous call.
// Calls must come from a single goroutine.
func (m *HeadMetrics) ObserveDecoder(stats protocol.DecoderStats) {
	m.FramesTotal.WithLabelValues("valid").Add(float64(stats.Valid - m.last.Valid))
	m.FramesTotal.WithLabelValues("rejected").Add(float64(stats.Rejected - m.last.Rejected))
	m.ResyncTotal.Add(float64(stats.Resyncs - m.last.Resyncs))
	m.last = stats
}

// ObserveCycle records the state after one control cycle
func (m *HeadMetrics) ObserveCycle(h *core.Head) {
	out := h.Outputs()
	m.CyclesTotal.Inc()
	m.FrameValid.Set(boolGauge(h.Store().Valid()))
	m.EncoderLock.Set(boolGauge(h.Locked()))

	m.PulseWidth.WithLabelValues("neckRx").Set(float64(out.NeckRxPulse))
	m.PulseWidth.WithLabelValues("chin").Set(float64(out.ChinPulse))
	m.DriveSpeed.WithLabelValues("neckRy").Set(out.NeckRySpeed)
	m.DriveSpeed.WithLabelValues("neckRz").Set(out.NeckRzSpeed)

	_, ry, _ := h.NeckRyLaw().Last()
	_, rz, _ := h.NeckRzLaw().Last()
	m.EncoderCount.WithLabelValues("neckRy").Set(float64(ry))
	m.EncoderCount.WithLabelValues("neckRz").Set(float64(rz))

	m.ObserveDecoder(h.Decoder().Stats())
}

// ObserveStatusReply counts one status reply word
func (m *HeadMetrics) ObserveStatusReply(reply uint16) {
	if reply == protocol.StatusValid {
		m.StatusReplies.WithLabelValues("valid").Inc()
		return
	}
	m.StatusReplies.WithLabelValues("invalid").Inc()
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
