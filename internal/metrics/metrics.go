// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 検索エンドポイントの種別ラベル。
const (
	EndpointList      = "list"
	EndpointGet       = "get"
	EndpointRecommend = "recommend"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 検索サービス、出品サービス、クリーンアップジョブから利用する。
type MetricsCollector interface {
	RecordQuery(endpoint string, returned int, duration time.Duration)
	RecordPostFilterExcluded(count int)
	RecordUnknownRestrictions(count int)
	RecordSellerDropped(count int)
	RecordViewIncrement()
	RecordListingCreated()
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	queries             *prometheus.CounterVec
	resultsReturned     *prometheus.CounterVec
	queryLatency        *prometheus.HistogramVec
	postFilterExcluded  prometheus.Counter
	unknownRestrictions prometheus.Counter
	sellerDropped       prometheus.Counter
	viewsIncremented    prometheus.Counter
	listingsCreated     prometheus.Counter
	sessionsCleaned     prometheus.Counter
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tastebuddiez_discovery_queries_total",
			Help: "エンドポイント別の検索リクエスト数",
		}, []string{"endpoint"}),
		resultsReturned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tastebuddiez_discovery_results_returned_total",
			Help: "エンドポイント別に返却した出品の合計数",
		}, []string{"endpoint"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tastebuddiez_discovery_query_latency_seconds",
			Help:    "検索処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		postFilterExcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tastebuddiez_postfilter_excluded_total",
			Help: "食事制限の後段フィルタで除外された出品の合計数",
		}),
		unknownRestrictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tastebuddiez_unknown_restrictions_total",
			Help: "認識できなかった食事制限名の合計数",
		}),
		sellerDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tastebuddiez_seller_dropped_total",
			Help: "出品者を解決できず一覧から除外した出品の合計数",
		}),
		viewsIncremented: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tastebuddiez_views_incremented_total",
			Help: "閲覧数を加算した回数",
		}),
		listingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tastebuddiez_listings_created_total",
			Help: "作成された出品の合計数",
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tastebuddiez_sessions_cleaned_total",
			Help: "削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.queries,
		c.resultsReturned,
		c.queryLatency,
		c.postFilterExcluded,
		c.unknownRestrictions,
		c.sellerDropped,
		c.viewsIncremented,
		c.listingsCreated,
		c.sessionsCleaned,
	)

	return c
}

// RecordQuery は検索1件分のリクエスト数、返却件数、レイテンシを記録する。
func (c *Collector) RecordQuery(endpoint string, returned int, duration time.Duration) {
	c.queries.WithLabelValues(endpoint).Inc()
	c.resultsReturned.WithLabelValues(endpoint).Add(float64(returned))
	c.queryLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordPostFilterExcluded は後段フィルタで除外された件数を記録する。
func (c *Collector) RecordPostFilterExcluded(count int) {
	c.postFilterExcluded.Add(float64(count))
}

// RecordUnknownRestrictions は未知の食事制限名の件数を記録する。
func (c *Collector) RecordUnknownRestrictions(count int) {
	c.unknownRestrictions.Add(float64(count))
}

// RecordSellerDropped は出品者未解決で除外した件数を記録する。
func (c *Collector) RecordSellerDropped(count int) {
	c.sellerDropped.Add(float64(count))
}

// RecordViewIncrement は閲覧数の加算を記録する。
func (c *Collector) RecordViewIncrement() {
	c.viewsIncremented.Inc()
}

// RecordListingCreated は出品の作成を記録する。
func (c *Collector) RecordListingCreated() {
	c.listingsCreated.Inc()
}

// RecordSessionsCleaned は削除した期限切れセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// NopCollector は何も記録しないMetricsCollector。
// メトリクスを必要としないテストやコマンドで使用する。
type NopCollector struct{}

var _ MetricsCollector = NopCollector{}

func (NopCollector) RecordQuery(string, int, time.Duration) {}
func (NopCollector) RecordPostFilterExcluded(int)           {}
func (NopCollector) RecordUnknownRestrictions(int)          {}
func (NopCollector) RecordSellerDropped(int)                {}
func (NopCollector) RecordViewIncrement()                   {}
func (NopCollector) RecordListingCreated()                  {}
func (NopCollector) RecordSessionsCleaned(int64)            {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
