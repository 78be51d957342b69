package rules

// MembershipTier is the household head's club membership level. The values
// are the exact labels used on the registration form.
type MembershipTier string

const (
	TierPro     MembershipTier = "Sócio Pro"
	TierFamilia MembershipTier = "Sócio Família"
	TierGeral   MembershipTier = "Sócio Geral"
	TierBase    MembershipTier = "Sócio Base"
	TierNone    MembershipTier = "Não pretendo ser sócio"
)

// MembershipTiers lists every selectable tier.
func MembershipTiers() []MembershipTier {
	return []MembershipTier{TierPro, TierFamilia, TierGeral, TierBase, TierNone}
}

// ValidMembershipTier reports whether the label is one of the five tiers.
func ValidMembershipTier(t MembershipTier) bool {
	switch t {
	case TierPro, TierFamilia, TierGeral, TierBase, TierNone:
		return true
	}
	return false
}

// PriceBand groups brackets that share a fee table.
type PriceBand string

const (
	BandMini     PriceBand = "MINI"     // Baby Basket, Mini 8, Mini 10
	BandSubs     PriceBand = "SUBS"     // Mini 12 through Sub 18
	BandSeniores PriceBand = "SENIORES" // dues-bearing adults
	BandSub23    PriceBand = "SUB23"    // dues-exempt, annual only
	BandMasters  PriceBand = "MASTERS"  // dues-exempt, annual only
)

// BandForCategory maps a bracket to its fee band. The switch is exhaustive
// over the closed Category set; anything unrecognised (legacy labels, manual
// admin overrides) charges the general SUBS table.
func BandForCategory(c Category) PriceBand {
	switch c {
	case CategoryBabyBasket, CategoryMini8, CategoryMini10:
		return BandMini
	case CategoryMini12, CategorySub14M, CategorySub14F, CategorySub16M, CategorySub16F, CategorySub18M, CategorySub18F:
		return BandSubs
	case CategorySeniorM, CategorySeniorF:
		return BandSeniores
	case CategorySub23M:
		return BandSub23
	case CategoryMasters:
		return BandMasters
	default:
		return BandSubs
	}
}

// DuesExempt reports whether a band pays a single annual amount instead of
// recurring quotas.
func DuesExempt(band PriceBand) bool {
	return band == BandSub23 || band == BandMasters
}

// Quote is the fee estimate for one athlete for the season.
type Quote struct {
	RegistrationFee      float64 `json:"registration_fee"`
	MonthlyInstallment   float64 `json:"monthly_installment"`
	QuarterlyInstallment float64 `json:"quarterly_installment"`
	AnnualInstallment    float64 `json:"annual_installment"`
	OnlyAnnual           bool    `json:"only_annual"`
}

type rate struct {
	registration float64
	monthly      float64
	quarterly    float64
	annual       float64
}

// Discount levels within a dues-bearing band: 0 standard, 1 Pro household,
// 2 Pro household with two or more fee-eligible athletes (applies to every
// athlete but the eldest). Amounts are the season's published prices, not a
// formula.
var priceTable = map[PriceBand][3]rate{
	BandMini: {
		{registration: 40, monthly: 35, quarterly: 115, annual: 340},
		{registration: 40, monthly: 30, quarterly: 100, annual: 295},
		{registration: 40, monthly: 25, quarterly: 85, annual: 250},
	},
	BandSubs: {
		{registration: 45, monthly: 45, quarterly: 145, annual: 430},
		{registration: 45, monthly: 40, quarterly: 130, annual: 385},
		{registration: 45, monthly: 35, quarterly: 115, annual: 340},
	},
	BandSeniores: {
		{registration: 50, monthly: 50, quarterly: 160, annual: 475},
		{registration: 50, monthly: 45, quarterly: 145, annual: 430},
		{registration: 50, monthly: 40, quarterly: 130, annual: 385},
	},
}

const (
	sub23AnnualFee   = 120
	mastersAnnualFee = 100
)

// Estimate computes the fee quote for an athlete in the given bracket.
// eligibleCount is the number of fee-eligible athletes in the household and
// proRank the athlete's 1-based position when those athletes are ordered
// eldest first; both only matter for Pro households.
func Estimate(category Category, tier MembershipTier, eligibleCount, proRank int) Quote {
	band := BandForCategory(category)
	switch band {
	case BandSub23:
		return Quote{RegistrationFee: sub23AnnualFee, AnnualInstallment: sub23AnnualFee, OnlyAnnual: true}
	case BandMasters:
		return Quote{RegistrationFee: mastersAnnualFee, AnnualInstallment: mastersAnnualFee, OnlyAnnual: true}
	}

	level := 0
	if tier == TierPro {
		level = 1
		if eligibleCount >= 2 && proRank >= 2 {
			level = 2
		}
	}

	r := priceTable[band][level]
	return Quote{
		RegistrationFee:      r.registration,
		MonthlyInstallment:   r.monthly,
		QuarterlyInstallment: r.quarterly,
		AnnualInstallment:    r.annual,
	}
}
