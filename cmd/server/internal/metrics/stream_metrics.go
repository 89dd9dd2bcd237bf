package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AudioChunksTotal 音频切片处理总数计数器
	// Labels: status (success/error/empty)
	AudioChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meethub_audio_chunks_total",
			Help: "Total number of audio chunks handed to the transcriber",
		},
		[]string{"status"},
	)

	// BroadcastDeliveriesTotal 广播投递计数器
	// Labels: channel (meeting/notes), status (sent/failed)
	BroadcastDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meethub_broadcast_deliveries_total",
			Help: "Total number of per-recipient broadcast deliveries",
		},
		[]string{"channel", "status"},
	)

	// InsightTasksTotal 洞察任务计数器
	// Labels: kind (sentiment/summary/rag_insights), status (success/error/skipped)
	InsightTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meethub_insight_tasks_total",
			Help: "Total number of enrichment steps by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	// LiveConnections 当前活跃连接数
	// Labels: channel (meeting/notes)
	LiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "meethub_live_connections",
			Help: "Number of currently connected websocket clients",
		},
		[]string{"channel"},
	)

	// CollaboratorDuration 外部协作调用耗时直方图（秒）
	// Labels: collaborator (transcriber/summarizer/sentiment/retrieval)
	CollaboratorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meethub_collaborator_duration_seconds",
			Help:    "External collaborator call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"collaborator"},
	)
)

// RecordChunk 记录一次音频切片转写结果
func RecordChunk(status string) {
	AudioChunksTotal.WithLabelValues(status).Inc()
}

// RecordDelivery 记录一次广播投递结果
func RecordDelivery(channel string, sent bool) {
	status := "sent"
	if !sent {
		status = "failed"
	}
	BroadcastDeliveriesTotal.WithLabelValues(channel, status).Inc()
}

// RecordInsight 记录一次洞察步骤结果
func RecordInsight(kind, status string) {
	InsightTasksTotal.WithLabelValues(kind, status).Inc()
}

// RecordCollaboratorDuration 记录外部协作调用耗时（秒）
func RecordCollaboratorDuration(collaborator string, seconds float64) {
	CollaboratorDuration.WithLabelValues(collaborator).Observe(seconds)
}
