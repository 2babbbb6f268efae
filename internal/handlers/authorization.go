package handlers

import (
	"net/http"

	"media-library/internal/authz"
	"media-library/internal/photolibrary"
)

// AuthorizationResponse reports the stored decisions.
type AuthorizationResponse struct {
	Authorized bool        `json:"authorized"`
	Read       authz.State `json:"read"`
	Write      authz.State `json:"write"`
}

func (h *Handlers) authorizationState() AuthorizationResponse {
	return AuthorizationResponse{
		Authorized: h.lib.IsAuthorized(),
		Read:       h.lib.AuthorizationState(authz.Read),
		Write:      h.lib.AuthorizationState(authz.Write),
	}
}

// GetAuthorization reports whether read access has been granted.
func (h *Handlers) GetAuthorization(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSONStatus(w, http.StatusOK, h.authorizationState())
}

// RequestAuthorization asks for the capabilities in the body, read only
// when the body is empty.
func (h *Handlers) RequestAuthorization(w http.ResponseWriter, r *http.Request) {
	opts := photolibrary.DefaultAuthorizationOptions()
	if err := decodeBody(r, &opts); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	if err := h.lib.RequestAuthorization(r.Context(), opts); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, h.authorizationState())
}
