package httpapi

import "net/http"

type healthResponse struct {
	Status   string `json:"status"`
	Storage  string `json:"storage"`
	Degraded bool   `json:"degraded"`
}

// Health handles GET / and GET /healthz. A degraded server is still healthy;
// the flag tells operators that data lives only in process memory.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "healthy",
		Storage:  string(a.storage.Backend()),
		Degraded: a.storage.Degraded(),
	})
}
