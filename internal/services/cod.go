package services

import "strings"

// CODDecision is the outcome of a cash-on-delivery eligibility check.
type CODDecision struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

const codArabicCity = "بورتسودان"

// CODEligibility decides whether cash on delivery is available for a delivery
// city and order total. The total is denominated in the stored currency and
// must be strictly below maxTotal. Deterministic and side-effect free; called
// both at checkout render and at submission.
func CODEligibility(city string, total, maxTotal float64) CODDecision {
	normalized := strings.ToLower(city)
	inPortSudan := (strings.Contains(normalized, "port") && strings.Contains(normalized, "sudan")) ||
		strings.Contains(city, codArabicCity)
	withinLimit := total < maxTotal

	switch {
	case inPortSudan && withinLimit:
		return CODDecision{Available: true}
	case !inPortSudan && !withinLimit:
		return CODDecision{Reason: "cash on delivery is only available in Port Sudan for orders below the limit"}
	case !inPortSudan:
		return CODDecision{Reason: "cash on delivery is only available in Port Sudan"}
	default:
		return CODDecision{Reason: "order total exceeds the cash on delivery limit"}
	}
}
