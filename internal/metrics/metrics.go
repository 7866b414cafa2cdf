// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordFeedEventPublished(kind string)
	RecordFeedWriteFailure()
	RecordSubscriberOpened()
	RecordSubscriberClosed()
	RecordLinkFetchSuccess()
	RecordLinkFetchFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	feedEvents       *prometheus.CounterVec
	feedWriteFail    prometheus.Counter
	sseSubscribers   prometheus.Gauge
	linkFetchSuccess prometheus.Counter
	linkFetchFail    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		feedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courseman_feed_events_published_total",
			Help: "種類別のフィードイベント発行数",
		}, []string{"kind"}),
		feedWriteFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courseman_feed_write_failures_total",
			Help: "購読者への書き込み失敗の合計数",
		}),
		sseSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "courseman_sse_subscribers",
			Help: "現在接続中のSSE購読者数",
		}),
		linkFetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courseman_link_fetch_success_total",
			Help: "リンクメタデータ取得成功の合計数",
		}),
		linkFetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courseman_link_fetch_fail_total",
			Help: "リンクメタデータ取得失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.feedEvents,
		c.feedWriteFail,
		c.sseSubscribers,
		c.linkFetchSuccess,
		c.linkFetchFail,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordFeedEventPublished は種類別のフィードイベント発行を記録する。
func (c *Collector) RecordFeedEventPublished(kind string) {
	c.feedEvents.WithLabelValues(kind).Inc()
}

// RecordFeedWriteFailure は購読者への書き込み失敗を記録する。
func (c *Collector) RecordFeedWriteFailure() {
	c.feedWriteFail.Inc()
}

// RecordSubscriberOpened はSSE購読者の接続を記録する。
func (c *Collector) RecordSubscriberOpened() {
	c.sseSubscribers.Inc()
}

// RecordSubscriberClosed はSSE購読者の切断を記録する。
func (c *Collector) RecordSubscriberClosed() {
	c.sseSubscribers.Dec()
}

// RecordLinkFetchSuccess はリンクメタデータ取得成功を記録する。
func (c *Collector) RecordLinkFetchSuccess() {
	c.linkFetchSuccess.Inc()
}

// RecordLinkFetchFailure はリンクメタデータ取得失敗を記録する。
func (c *Collector) RecordLinkFetchFailure() {
	c.linkFetchFail.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
