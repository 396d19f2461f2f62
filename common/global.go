package common

// Application metadata.
const (
	AppName    = "radar"
	AppVersion = "0.2.0"
	AppAuthor  = "HON95"
)

// PrometheusNamespace - Prometheus metrics namespace.
const PrometheusNamespace = "radar"
