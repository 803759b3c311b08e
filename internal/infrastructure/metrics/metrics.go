package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipe_hub"

var (
	// HTTP 請求
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 外部供應商
	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Outbound provider calls by outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)
	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Outbound provider call latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// 搜尋
	searchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Recipe searches by seed filter and outcome",
		},
		[]string{"seed", "outcome"},
	)
	searchFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_filter_fallbacks_total",
			Help:      "Secondary filters dropped because they emptied the result set",
		},
		[]string{"filter"},
	)

	// 營養解析
	nutritionResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nutrition_resolutions_total",
			Help:      "Nutrition resolutions by answering provider (none on miss)",
		},
		[]string{"source"},
	)

	// 匯入與審核
	recipeWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipe_writes_total",
			Help:      "Recipe imports, submissions and status changes by outcome",
		},
		[]string{"action", "outcome"},
	)
)

// ObserveProviderCall 記錄一次供應商調用
func ObserveProviderCall(provider, operation string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	providerRequestsTotal.WithLabelValues(provider, operation, outcome).Inc()
	providerRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveSearch 記錄一次搜尋
func ObserveSearch(seed string, degraded bool) {
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	searchRequestsTotal.WithLabelValues(seed, outcome).Inc()
}

// ObserveFallback 記錄次要條件回退
func ObserveFallback(filter string) {
	searchFallbacksTotal.WithLabelValues(filter).Inc()
}

// ObserveNutrition 記錄營養解析來源
func ObserveNutrition(source string) {
	if source == "" {
		source = "none"
	}
	nutritionResolutionsTotal.WithLabelValues(source).Inc()
}

// ObserveRecipeWrite 記錄食譜寫入結果
func ObserveRecipeWrite(action string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	recipeWritesTotal.WithLabelValues(action, outcome).Inc()
}

// Middleware HTTP 指標中間件
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler Prometheus 抓取端點
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
