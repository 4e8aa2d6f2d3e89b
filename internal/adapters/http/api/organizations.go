package api

import (
	"context"
	"net/http"
)

// OrganizationsDependencies lists known organizations.
type OrganizationsDependencies interface {
	Organizations(ctx context.Context) ([]string, error)
}

// OrganizationsHandler handles organization listing.
type OrganizationsHandler struct {
	deps OrganizationsDependencies
}

// NewOrganizationsHandler creates a new organizations handler.
func NewOrganizationsHandler(deps OrganizationsDependencies) *OrganizationsHandler {
	return &OrganizationsHandler{deps: deps}
}

type organizationsResponse struct {
	Organizations []string `json:"organizations"`
}

// HandleListOrganizations handles GET /organizations requests.
func (h *OrganizationsHandler) HandleListOrganizations(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_organizations"
	names, err := h.deps.Organizations(r.Context())
	if err != nil {
		writeFailure(w, r, op, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, organizationsResponse{Organizations: names})
}
