package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateSub14NonMember(t *testing.T) {
	q := Estimate(CategorySub14F, TierNone, 1, 1)

	assert.Equal(t, 45.0, q.RegistrationFee)
	assert.Equal(t, 45.0, q.MonthlyInstallment)
	assert.Equal(t, 145.0, q.QuarterlyInstallment)
	assert.Equal(t, 430.0, q.AnnualInstallment)
	assert.False(t, q.OnlyAnnual)
}

func TestEstimateMastersAnyTier(t *testing.T) {
	for _, tier := range MembershipTiers() {
		q := Estimate(CategoryMasters, tier, 3, 2)
		assert.Equal(t, 100.0, q.AnnualInstallment)
		assert.Equal(t, 100.0, q.RegistrationFee)
		assert.Equal(t, 0.0, q.MonthlyInstallment)
		assert.Equal(t, 0.0, q.QuarterlyInstallment)
		assert.True(t, q.OnlyAnnual)
	}
}

func TestEstimateDuesExemptBands(t *testing.T) {
	for _, c := range []Category{CategorySub23M, CategoryMasters} {
		q := Estimate(c, TierPro, 2, 2)
		assert.True(t, q.OnlyAnnual, string(c))
		assert.Zero(t, q.MonthlyInstallment, string(c))
		assert.Zero(t, q.QuarterlyInstallment, string(c))
		assert.NotZero(t, q.AnnualInstallment, string(c))
	}
}

func TestEstimateProDiscountSteps(t *testing.T) {
	standard := Estimate(CategorySub16M, TierNone, 1, 1)
	eldest := Estimate(CategorySub16M, TierPro, 2, 1)
	younger := Estimate(CategorySub16M, TierPro, 2, 2)

	assert.Less(t, eldest.MonthlyInstallment, standard.MonthlyInstallment)
	assert.Less(t, younger.MonthlyInstallment, eldest.MonthlyInstallment)
	assert.Less(t, younger.AnnualInstallment, standard.AnnualInstallment)
}

func TestEstimateProSingleAthleteGetsFirstTier(t *testing.T) {
	single := Estimate(CategoryMini12, TierPro, 1, 1)
	eldestOfTwo := Estimate(CategoryMini12, TierPro, 2, 1)
	assert.Equal(t, eldestOfTwo, single)
}

func TestEstimateNonProTiersPayStandard(t *testing.T) {
	standard := Estimate(CategorySub18F, TierNone, 1, 1)
	for _, tier := range []MembershipTier{TierFamilia, TierGeral, TierBase} {
		assert.Equal(t, standard, Estimate(CategorySub18F, tier, 2, 2), string(tier))
	}
}

func TestBandForCategoryFallback(t *testing.T) {
	assert.Equal(t, BandSubs, BandForCategory(Category("escalão antigo")))
	assert.Equal(t, BandSubs, BandForCategory(CategoryNone))
}

func TestBandMapping(t *testing.T) {
	assert.Equal(t, BandMini, BandForCategory(CategoryBabyBasket))
	assert.Equal(t, BandMini, BandForCategory(CategoryMini10))
	assert.Equal(t, BandSubs, BandForCategory(CategoryMini12))
	assert.Equal(t, BandSubs, BandForCategory(CategorySub18M))
	assert.Equal(t, BandSeniores, BandForCategory(CategorySeniorF))
	assert.Equal(t, BandSub23, BandForCategory(CategorySub23M))
	assert.Equal(t, BandMasters, BandForCategory(CategoryMasters))
}

func TestDuesExempt(t *testing.T) {
	assert.True(t, DuesExempt(BandSub23))
	assert.True(t, DuesExempt(BandMasters))
	assert.False(t, DuesExempt(BandMini))
	assert.False(t, DuesExempt(BandSubs))
	assert.False(t, DuesExempt(BandSeniores))
}

func TestFormatEUR(t *testing.T) {
	assert.Equal(t, "45 €", FormatEUR(45))
	assert.Equal(t, "32,50 €", FormatEUR(32.5))
	assert.Equal(t, "0 €", FormatEUR(0))
}
