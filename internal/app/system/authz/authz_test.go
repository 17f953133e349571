package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/app/system/authz"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func reqWith(u *auth.SessionUser) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if u == nil {
		return r
	}
	return auth.WithTestUser(r, u)
}

func TestPricingModel(t *testing.T) {
	tests := []struct {
		name string
		user *auth.SessionUser
		want string
	}{
		{"no user", nil, models.PricingFree},
		{"empty tier", &auth.SessionUser{ID: primitive.NewObjectID().Hex()}, models.PricingFree},
		{"premium", &auth.SessionUser{ID: primitive.NewObjectID().Hex(), PricingModel: "Premium"}, models.PricingPremium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authz.PricingModel(reqWith(tt.user)); got != tt.want {
				t.Errorf("PricingModel() = %q, want %q", got, tt.want)
			}
		})
	}
}
