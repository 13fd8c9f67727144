// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン種別のラベル値。
const (
	LoginKindNew         = "new"
	LoginKindExisting    = "existing"
	LoginKindReactivated = "reactivated"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、サービス層、ワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordLogin(kind string)
	RecordGoalProofCreated()
	RecordGoalSettled(result string)
	RecordUploadBytes(size int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
	login            *prometheus.CounterVec
	goalProofCreated prometheus.Counter
	goalSettled      *prometheus.CounterVec
	uploadBytes      prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "raisedragon_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "raisedragon_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		login: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "raisedragon_login_total",
			Help: "種別ごとのKakaoログイン数",
		}, []string{"kind"}),
		goalProofCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raisedragon_goal_proof_created_total",
			Help: "作成された目標認証の合計数",
		}),
		goalSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "raisedragon_goal_settled_total",
			Help: "判定結果別の目標判定数",
		}, []string{"result"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "raisedragon_upload_bytes_total",
			Help: "S3にアップロードしたバイト数の合計",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.login,
		c.goalProofCreated,
		c.goalSettled,
		c.uploadBytes,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordLogin はログインを種別ごとに記録する。
func (c *Collector) RecordLogin(kind string) {
	c.login.WithLabelValues(kind).Inc()
}

// RecordGoalProofCreated は目標認証の作成を記録する。
func (c *Collector) RecordGoalProofCreated() {
	c.goalProofCreated.Inc()
}

// RecordGoalSettled は目標の判定を結果ごとに記録する。
func (c *Collector) RecordGoalSettled(result string) {
	c.goalSettled.WithLabelValues(result).Inc()
}

// RecordUploadBytes はアップロードしたバイト数を加算する。
func (c *Collector) RecordUploadBytes(size int64) {
	if size > 0 {
		c.uploadBytes.Add(float64(size))
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。
// メトリクスを必要としないテストやコマンドで使用する。
type NopCollector struct{}

func (NopCollector) RecordHTTPStatus(int)                {}
func (NopCollector) RecordRequestLatency(time.Duration) {}
func (NopCollector) RecordLogin(string)                  {}
func (NopCollector) RecordGoalProofCreated()             {}
func (NopCollector) RecordGoalSettled(string)            {}
func (NopCollector) RecordUploadBytes(int64)             {}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
