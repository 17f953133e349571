package projectpolicy

import (
	"context"

	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MsgProjectQuota = "You have reached the project limit of your plan."
	MsgMemberQuota  = "You have reached the member limit of your plan."
)

var projectQuota = map[string]int64{
	models.PricingFree:       1,
	models.PricingPremium:    10,
	models.PricingEnterprise: 25,
}

var memberQuota = map[string]int64{
	models.PricingFree:       5,
	models.PricingPremium:    30,
	models.PricingEnterprise: 150,
}

// ProjectQuota is how many projects a tier may create. Unknown tiers get
// the free allowance.
func ProjectQuota(tier string) int64 {
	if n, ok := projectQuota[tier]; ok {
		return n
	}
	return projectQuota[models.PricingFree]
}

// MemberQuota is how many membership rows (owner included, rejected
// excluded) a project may hold under the inviter's tier.
func MemberQuota(tier string) int64 {
	if n, ok := memberQuota[tier]; ok {
		return n
	}
	return memberQuota[models.PricingFree]
}

// CheckProjectQuota fails with Conflict when userID already created as
// many projects as the tier allows.
func (p *Policy) CheckProjectQuota(ctx context.Context, userID primitive.ObjectID, tier string) error {
	n, err := p.projects.CountOwnedBy(ctx, userID)
	if err != nil {
		return err
	}
	if n >= ProjectQuota(tier) {
		return apierr.Conflict(MsgProjectQuota)
	}
	return nil
}

// CheckMemberQuota fails with Conflict when the project is full for the
// inviter's tier.
func (p *Policy) CheckMemberQuota(ctx context.Context, projectID primitive.ObjectID, tier string) error {
	n, err := p.members.CountActive(ctx, projectID)
	if err != nil {
		return err
	}
	if n >= MemberQuota(tier) {
		return apierr.Conflict(MsgMemberQuota)
	}
	return nil
}
