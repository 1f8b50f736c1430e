package httpapi

import "net/http"

type createLabelRequest struct {
	Name string `json:"name"`
}

type createLabelResponse struct {
	LabelID string `json:"label_id"`
	Message string `json:"message"`
}

// CreateLabel handles POST /api/labels.
func (a *API) CreateLabel(w http.ResponseWriter, r *http.Request) {
	var req createLabelRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	label, err := a.labels.Create(r.Context(), UserFrom(r.Context()), req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createLabelResponse{LabelID: label.ID.String(), Message: "Label created successfully"})
}

// ListLabels handles GET /api/labels.
func (a *API) ListLabels(w http.ResponseWriter, r *http.Request) {
	list, err := a.labels.List(r.Context(), UserFrom(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
