// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/domain/models"
)

// PricingModel returns the acting user's tier, defaulting to free.
func PricingModel(r *http.Request) string {
	u, ok := auth.CurrentUser(r)
	if !ok || u.PricingModel == "" {
		return models.PricingFree
	}
	return strings.ToLower(u.PricingModel)
}
