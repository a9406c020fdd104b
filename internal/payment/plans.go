package payment

import (
	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/samber/lo"
)

const (
	PlanFree    = "free"
	PlanPremium = "premium"
	PlanFamily  = "family"

	PlanUnknown = "unknown"
)

// Plans returns the subscription catalogue. Only the paid plans carry a
// Stripe price.
func Plans(premiumPriceID, familyPriceID string) []model.SubscriptionPlan {
	return []model.SubscriptionPlan{
		{
			ID:                   PlanFree,
			Name:                 "Gratis",
			NameNorwegian:        "Gratis",
			Description:          "Perfect for getting started",
			DescriptionNorwegian: "Perfekt for å komme i gang",
			Price:                0,
			Currency:             "NOK",
			Interval:             model.Monthly,
			Features: []string{
				"3 stories per month",
				"Basic recording quality",
				"Share with 2 family members",
				"Email support",
			},
			FeaturesNorwegian: []string{
				"3 historier per måned",
				"Standard opptakskvalitet",
				"Del med 2 familiemedlemmer",
				"E-post support",
			},
		},
		{
			ID:                   PlanPremium,
			Name:                 "Premium",
			NameNorwegian:        "Premium",
			Description:          "Full access to all features",
			DescriptionNorwegian: "Full tilgang til alle funksjoner",
			Price:                149,
			Currency:             "NOK",
			Interval:             model.Monthly,
			Features: []string{
				"Unlimited stories",
				"High-quality recording",
				"Voice cloning with ElevenLabs",
				"AI story assistance",
				"Share with unlimited family",
				"Automatic transcription",
				"Priority support",
			},
			FeaturesNorwegian: []string{
				"Ubegrenset historier",
				"Høykvalitets opptak",
				"Stemmekloning med ElevenLabs",
				"AI historieassistanse",
				"Del med ubegrenset familie",
				"Automatisk transkripsjon",
				"Prioritert support",
			},
			StripePriceID: premiumPriceID,
			Popular:       true,
		},
		{
			ID:                   PlanFamily,
			Name:                 "Family",
			NameNorwegian:        "Familie",
			Description:          "Perfect for large families",
			DescriptionNorwegian: "Perfekt for store familier",
			Price:                249,
			Currency:             "NOK",
			Interval:             model.Monthly,
			Features: []string{
				"Everything in Premium",
				"Up to 10 family accounts",
				"Family story collections",
				"Collaborative storytelling",
				"Family analytics dashboard",
				"Custom family domain",
			},
			FeaturesNorwegian: []string{
				"Alt i Premium",
				"Opptil 10 familiekontoer",
				"Familie historiesamlinger",
				"Samarbeidshistorier",
				"Familie analyseoversikt",
				"Tilpasset familiedomene",
			},
			StripePriceID: familyPriceID,
		},
	}
}

// planForPrice maps a Stripe price to a plan ID, or PlanUnknown. An empty
// price never matches, even though the free plan has none.
func planForPrice(plans []model.SubscriptionPlan, priceID string) string {
	if priceID == "" {
		return PlanUnknown
	}
	plan, ok := lo.Find(plans, func(p model.SubscriptionPlan) bool {
		return p.StripePriceID == priceID
	})
	if !ok {
		return PlanUnknown
	}
	return plan.ID
}
