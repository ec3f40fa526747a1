package vip

import (
	"github.com/google/uuid"
)

// Plan is a purchasable VIP subscription tier.
// Prices are base units of RUB (kopecks).
type Plan struct {
	ID       string `json:"id"`
	Days     int    `json:"days"`
	Price    int64  `json:"price"`
	Discount int    `json:"discount,omitempty"` // percent off the monthly rate
}

// plans is the VIP price list
var plans = map[string]Plan{
	"month":       {ID: "month", Days: 30, Price: 99900},
	"threeMonths": {ID: "threeMonths", Days: 90, Price: 249900, Discount: 17},
	"sixMonths":   {ID: "sixMonths", Days: 180, Price: 449900, Discount: 25},
	"year":        {ID: "year", Days: 365, Price: 799900, Discount: 33},
}

// GetPlan looks up a plan by ID
func GetPlan(id string) (Plan, error) {
	p, ok := plans[id]
	if !ok {
		return Plan{}, ErrUnknownPlan
	}
	return p, nil
}

// Plans returns the full price list
func Plans() []Plan {
	result := make([]Plan, 0, len(plans))
	for _, p := range plans {
		result = append(result, p)
	}
	return result
}

// PurchaseRequest represents a VIP subscription purchase
type PurchaseRequest struct {
	UserID uuid.UUID `json:"user_id"`
	PlanID string    `json:"plan_id"`
}

// Validate validates the purchase request
func (r *PurchaseRequest) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrInvalidUserID
	}
	if _, err := GetPlan(r.PlanID); err != nil {
		return err
	}
	return nil
}
