package metrics

// Prometheus metric names are namespace_subsystem_name.
const (
	namespaceLean = "lean"
)

const (
	subsystemCache      = "cache"
	subsystemValidation = "validation"
	subsystemIngestion  = "ingestion"
	subsystemChain      = "chain"
	subsystemSync       = "sync"
	subsystemNetwork    = "network"
)
