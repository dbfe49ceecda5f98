package handlers

import (
	"bytes"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	dbpkg "webpulse/internal/db"
)

var (
	beaconsTotal     *prometheus.CounterVec
	conversionsTotal *prometheus.CounterVec
)

// InitPrometheusMetrics registers the beacon counters. Call once at startup.
func InitPrometheusMetrics() {
	beaconsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webpulse",
			Name:      "beacons_total",
			Help:      "Total number of accepted tracking beacons.",
		},
		[]string{"site", "type"},
	)
	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webpulse",
			Name:      "conversions_total",
			Help:      "Total number of conversion events recorded.",
		},
		[]string{"site"},
	)
	prometheus.MustRegister(beaconsTotal, conversionsTotal)
}

// SiteMetricsHandler exposes Prometheus text metrics filtered to the calling
// API key's site label, so each site only sees its own beacon counters.
// Metric families without a site label pass through unfiltered.
func SiteMetricsHandler(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		apiKeyValue := string(ctx.QueryArgs().Peek("api-key"))
		if apiKeyValue == "" {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			ctx.SetBodyString("missing api-key query parameter")
			return
		}

		var key dbpkg.APIKey
		if err := gdb.Where("key = ? AND active = ?", apiKeyValue, true).First(&key).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				ctx.SetBodyString("invalid API key")
				return
			}
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			ctx.SetBodyString("database error")
			return
		}

		siteName := key.Name

		metricFamilies, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			ctx.SetBodyString("failed to gather metrics")
			return
		}

		filtered := make([]*dto.MetricFamily, 0, len(metricFamilies))
		for _, mf := range metricFamilies {
			hasSiteLabel := false
			for _, m := range mf.GetMetric() {
				for _, l := range m.GetLabel() {
					if l.GetName() == "site" {
						hasSiteLabel = true
						break
					}
				}
				if hasSiteLabel {
					break
				}
			}

			if !hasSiteLabel {
				filtered = append(filtered, mf)
				continue
			}

			var kept []*dto.Metric
			for _, m := range mf.GetMetric() {
				include := false
				for _, l := range m.GetLabel() {
					if l.GetName() == "site" && l.GetValue() == siteName {
						include = true
						break
					}
				}
				if include {
					kept = append(kept, m)
				}
			}

			if len(kept) == 0 {
				continue
			}

			filtered = append(filtered, &dto.MetricFamily{
				Name:   mf.Name,
				Help:   mf.Help,
				Type:   mf.Type,
				Metric: kept,
			})
		}

		var buf bytes.Buffer
		encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
		for _, mf := range filtered {
			if err := encoder.Encode(mf); err != nil {
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				ctx.SetBodyString("failed to encode metrics")
				return
			}
		}

		ctx.SetContentType(string(expfmt.FmtText))
		ctx.Response.Header.Set("Cache-Control", "no-store")
		ctx.SetBody(buf.Bytes())
	}
}
