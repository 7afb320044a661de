package handlers

import (
	"net/http"

	"github.com/apothio/storefront-reco/internal/transport/http/response"
)

// Health reports liveness. Dependency health is visible in logs; a probe
// only needs to know the process is serving.
func Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
