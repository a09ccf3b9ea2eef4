package domain

// Reply is a successful answer from the chat endpoint.
type Reply struct {
	Content   string
	Timestamp string
}

// HealthStatus is the advisory readiness signal of the backend.
type HealthStatus struct {
	Reachable  bool
	Configured bool
	Status     string
}

// StatusUnknown is reported when the backend could not be asked.
const StatusUnknown = "unknown"
