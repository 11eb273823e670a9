// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 認証サービス、失効台帳、リクエストゲートから利用する。
type Collector struct {
	registrations     prometheus.Counter
	logins            *prometheus.CounterVec
	tokensIssued      *prometheus.CounterVec
	revocations       *prometheus.CounterVec
	revokedRejections prometheus.Counter
	httpStatus        *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todoman_registrations_total",
			Help: "ユーザー登録の合計数",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoman_logins_total",
			Help: "ログイン試行の結果別合計数",
		}, []string{"result"}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoman_tokens_issued_total",
			Help: "発行されたトークンの種類別合計数",
		}, []string{"type"}),
		revocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoman_revocations_total",
			Help: "失効台帳へのトークン登録のバックエンド別合計数",
		}, []string{"backend"}),
		revokedRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "todoman_revoked_rejections_total",
			Help: "失効済みトークンによるリクエスト拒否の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "todoman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.tokensIssued,
		c.revocations,
		c.revokedRejections,
		c.httpStatus,
	)

	return c
}

// RecordRegistration はユーザー登録を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordTokenIssued は発行されたトークンの種類を記録する。
func (c *Collector) RecordTokenIssued(tokenType string) {
	c.tokensIssued.WithLabelValues(tokenType).Inc()
}

// RecordRevocation は失効の記録に使用されたバックエンドを記録する。
func (c *Collector) RecordRevocation(backend string) {
	c.revocations.WithLabelValues(backend).Inc()
}

// RecordRevokedRejection は失効済みトークンによる拒否を記録する。
func (c *Collector) RecordRevokedRejection() {
	c.revokedRejections.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
