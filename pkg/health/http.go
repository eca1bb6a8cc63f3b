package health

import (
	"encoding/json"
	"net/http"
)

// Response represents the JSON response structure for HTTP health check endpoints.
type Response struct {
	Status  string                 `json:"status"`            // "healthy" | "unhealthy"
	Checks  map[string]CheckStatus `json:"checks,omitempty"`  // check name -> status
	Message string                 `json:"message,omitempty"` // optional message
}

// CheckStatus represents the status of an individual check in the HTTP response.
type CheckStatus struct {
	Status  string `json:"status"`            // "ok" | "error"
	Error   string `json:"error,omitempty"`   // error message if status is "error"
	Latency string `json:"latency,omitempty"` // latency in human-readable format
}

// LivenessHandler returns an HTTP handler for liveness checks.
// Returns 200 OK if the process is alive, 503 Service Unavailable otherwise.
func (h *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := h.CheckLiveness(r.Context())
		h.writeResponse(w, status, err)
	}
}

// ReadinessHandler returns an HTTP handler for readiness checks.
// Returns 200 OK if the service is ready for traffic, 503 Service Unavailable otherwise.
func (h *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := h.CheckReadiness(r.Context())
		h.writeResponse(w, status, err)
	}
}

// writeResponse writes the health check response as JSON.
func (h *Checker) writeResponse(w http.ResponseWriter, status *Status, err error) {
	w.Header().Set("Content-Type", "application/json")

	response := Response{
		Checks: make(map[string]CheckStatus),
	}

	if status.Healthy {
		response.Status = "healthy"
		w.WriteHeader(http.StatusOK)
	} else {
		response.Status = "unhealthy"
		w.WriteHeader(http.StatusServiceUnavailable)
		if err != nil {
			response.Message = err.Error()
		}
	}

	for _, checkResult := range status.Checks {
		checkStatus := CheckStatus{
			Latency: checkResult.Latency.String(),
		}
		if checkResult.Healthy {
			checkStatus.Status = "ok"
		} else {
			checkStatus.Status = "error"
			checkStatus.Error = checkResult.Error
		}
		response.Checks[checkResult.Name] = checkStatus
	}

	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil && h.logger != nil {
		h.logger.Error("Failed to encode health response")
	}
}
