package model

// DiscountKind distinguishes percentage codes from the universal free
// override.
type DiscountKind string

const (
	DiscountPercentageOff DiscountKind = "percentage_off"
	DiscountFreeOverride  DiscountKind = "free_override"
)

// DiscountCode describes a code as known to the remote discount authority.
// Codes are matched case-insensitively. A nil CategoryRestriction means the
// code applies to every price category.
type DiscountCode struct {
	Code                string         `json:"code"`
	Kind                DiscountKind   `json:"kind"`
	Percentage          float64        `json:"percentage,omitempty"`
	CategoryRestriction *PriceCategory `json:"category_restriction,omitempty"`
}

// DiscountResult is the outcome of resolving a code against a base amount.
type DiscountResult struct {
	Code             string       `json:"code"`
	Kind             DiscountKind `json:"kind"`
	Percentage       float64      `json:"percentage,omitempty"`
	IsFree           bool         `json:"is_free"`
	BaseAmountCents  int64        `json:"base_amount_cents"`
	FinalAmountCents int64        `json:"final_amount_cents"`
}
