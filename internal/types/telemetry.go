package types

// Telemetry metric names for CloudWatch.
// All components MUST use these constants.
const (
	// Metric Names
	MetricAPILatency      = "APILatency"
	MetricAPIRequestCount = "APIRequestCount"

	// Dimension Keys
	DimEndpoint = "Endpoint"
	DimMethod   = "Method"
	DimStatus   = "StatusClass"

	// Metric Namespace
	MetricNamespace = "StreetPlan"
)
