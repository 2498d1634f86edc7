package server

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once

	tokenExchangesTotal  *prometheus.CounterVec
	deviceApprovalsTotal *prometheus.CounterVec
	userInfoTotal        *prometheus.CounterVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		tokenExchangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "token_exchanges_total",
			Help: "Token endpoint calls by grant type and outcome",
		}, []string{"grant_type", "result"}) // result: success | oauth error code | server_error

		deviceApprovalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "device_approvals_total",
			Help: "Device authorization approvals by outcome",
		}, []string{"result"})

		userInfoTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userinfo_requests_total",
			Help: "Userinfo endpoint calls by outcome",
		}, []string{"result"})

		registerCollector(tokenExchangesTotal)
		registerCollector(deviceApprovalsTotal)
		registerCollector(userInfoTotal)
	})
}

func registerCollector(collector prometheus.Collector) {
	if err := prometheus.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return
		}
		panic(err)
	}
}

// MetricsHandler exposes the prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	initMetrics()
	return promhttp.Handler()
}

func recordTokenExchange(grantType, result string) {
	initMetrics()
	tokenExchangesTotal.WithLabelValues(grantType, result).Inc()
}

func recordDeviceApproval(result string) {
	initMetrics()
	deviceApprovalsTotal.WithLabelValues(result).Inc()
}

func recordUserInfo(result string) {
	initMetrics()
	userInfoTotal.WithLabelValues(result).Inc()
}
