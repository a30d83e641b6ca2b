// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 書き込みパイプライン、ビューキャッシュ、HTTP層から利用する。
type Collector struct {
	mutations        *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	cacheRequests    *prometheus.CounterVec
	invalidations    prometheus.Counter
	httpStatus       *prometheus.CounterVec
	jobRuns          *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "psga_mutations_total",
			Help: "リソース・操作・結果別の書き込み数",
		}, []string{"resource", "operation", "outcome"}),
		mutationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "psga_mutation_duration_seconds",
			Help:    "書き込みパイプラインの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource", "operation"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "psga_view_cache_requests_total",
			Help: "ビューキャッシュの参照数（hit/miss）",
		}, []string{"result"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "psga_view_invalidations_total",
			Help: "無効化されたビューパスの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "psga_http_requests_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "psga_job_runs_total",
			Help: "定期ジョブの実行結果",
		}, []string{"job", "outcome"}),
	}

	reg.MustRegister(
		c.mutations,
		c.mutationDuration,
		c.cacheRequests,
		c.invalidations,
		c.httpStatus,
		c.jobRuns,
	)

	return c
}

// ObserveMutation は書き込み1回の結果と所要時間を記録する。
func (c *Collector) ObserveMutation(resource, operation, outcome string, duration time.Duration) {
	c.mutations.WithLabelValues(resource, operation, outcome).Inc()
	c.mutationDuration.WithLabelValues(resource, operation).Observe(duration.Seconds())
}

// RecordCacheHit はビューキャッシュのヒットを記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheRequests.WithLabelValues("hit").Inc()
}

// RecordCacheMiss はビューキャッシュのミスを記録する。
func (c *Collector) RecordCacheMiss() {
	c.cacheRequests.WithLabelValues("miss").Inc()
}

// RecordInvalidation は無効化されたパス数を記録する。
func (c *Collector) RecordInvalidation(paths int) {
	c.invalidations.Add(float64(paths))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordJobRun は定期ジョブの実行結果を記録する。
func (c *Collector) RecordJobRun(job string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.jobRuns.WithLabelValues(job, outcome).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
