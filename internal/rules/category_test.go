package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func birth(year int) time.Time {
	return time.Date(year, time.June, 15, 0, 0, 0, 0, time.UTC)
}

func TestClassifyBands(t *testing.T) {
	tests := []struct {
		year   int
		gender Gender
		want   Category
	}{
		{2021, GenderMale, CategoryBabyBasket},
		{2020, GenderFemale, CategoryBabyBasket},
		{2019, GenderMale, CategoryMini8},
		{2018, GenderFemale, CategoryMini8},
		{2017, GenderMale, CategoryMini10},
		{2016, GenderMale, CategoryMini10},
		{2015, GenderFemale, CategoryMini12},
		{2014, GenderMale, CategoryMini12},
		{2013, GenderMale, CategorySub14M},
		{2013, GenderFemale, CategorySub14F},
		{2012, GenderFemale, CategorySub14F},
		{2011, GenderMale, CategorySub16M},
		{2010, GenderFemale, CategorySub16F},
		{2009, GenderMale, CategorySub18M},
		{2008, GenderFemale, CategorySub18F},
		{2007, GenderMale, CategorySub23M},
		{2003, GenderMale, CategorySub23M},
		{2007, GenderFemale, CategorySeniorF},
		{2003, GenderFemale, CategorySeniorF},
		{2002, GenderMale, CategorySeniorM},
		{1991, GenderMale, CategorySeniorM},
		{1991, GenderFemale, CategorySeniorF},
		{1990, GenderMale, CategoryMasters},
		{1990, GenderFemale, CategoryMasters},
		{1960, GenderMale, CategoryMasters},
		{2022, GenderMale, CategoryNone},
		{2023, GenderFemale, CategoryNone},
	}

	for _, tc := range tests {
		got := Classify(birth(tc.year), tc.gender)
		assert.Equalf(t, tc.want, got, "year %d gender %s", tc.year, tc.gender)
	}
}

func TestClassifyConstantWithinBand(t *testing.T) {
	// Every date inside a band year must classify identically; the label only
	// changes at band boundaries.
	for _, g := range []Gender{GenderMale, GenderFemale} {
		for year := 1985; year <= 2023; year++ {
			jan := Classify(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), g)
			dec := Classify(time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC), g)
			assert.Equalf(t, jan, dec, "year %d gender %s differs within year", year, g)
		}
	}

	// Boundary transitions on the male side.
	assert.NotEqual(t, Classify(birth(2013), GenderMale), Classify(birth(2014), GenderMale))
	assert.NotEqual(t, Classify(birth(2008), GenderMale), Classify(birth(2007), GenderMale))
	assert.NotEqual(t, Classify(birth(1991), GenderMale), Classify(birth(1990), GenderMale))
}

func TestClassifyIsPure(t *testing.T) {
	d := birth(2012)
	first := Classify(d, GenderFemale)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(d, GenderFemale))
	}
}

func TestClassifyZeroDate(t *testing.T) {
	assert.Equal(t, CategoryNone, Classify(time.Time{}, GenderMale))
}

func TestSub23OnlyForMales(t *testing.T) {
	for year := 2003; year <= 2007; year++ {
		assert.Equal(t, CategorySub23M, Classify(birth(year), GenderMale))
		assert.Equal(t, CategorySeniorF, Classify(birth(year), GenderFemale))
	}
}
