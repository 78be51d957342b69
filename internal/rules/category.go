// Package rules holds the club's pure business-rule calculators: competitive
// bracket classification, the fee table, payment status derivation and the
// Portuguese document validators. Nothing in this package performs I/O; every
// function is deterministic given its inputs (the status deriver additionally
// takes the clock as a parameter).
package rules

import "time"

// Gender of an athlete as registered with the federation.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Category is a competitive bracket (escalão) label. Labels carry the birth
// year range so they match what the federation publishes for the season.
type Category string

const (
	CategoryBabyBasket Category = "Baby Basket (2020-2021)"
	CategoryMini8      Category = "Mini 8 (2018-2019)"
	CategoryMini10     Category = "Mini 10 (2016-2017)"
	CategoryMini12     Category = "Mini 12 (2014-2015)"
	CategorySub14M     Category = "Sub 14 masculino (2012-2013)"
	CategorySub14F     Category = "Sub 14 feminino (2012-2013)"
	CategorySub16M     Category = "Sub 16 masculino (2010-2011)"
	CategorySub16F     Category = "Sub 16 feminino (2010-2011)"
	CategorySub18M     Category = "Sub 18 masculino (2008-2009)"
	CategorySub18F     Category = "Sub 18 feminino (2008-2009)"
	CategorySub23M     Category = "Sub 23 masculino (2003-2007)"
	CategorySeniorM    Category = "Seniores masculino"
	CategorySeniorF    Category = "Seniores feminino"
	CategoryMasters    Category = "Masters (+35)"
	CategoryNone       Category = "Fora de escalão"
)

// SeasonReference anchors the year bands to the 2025/26 season. Bands move
// down two years every two seasons; update the table, not call sites.
var SeasonReference = time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

type yearBand struct {
	from, to int // inclusive birth-year range
	male     Category
	female   Category
}

// Bands below Sub 14 are mixed. From Sub 14 upward male and female brackets
// carry distinct labels. Sub 23 exists only on the male side: the female
// senior bracket absorbs those birth years, mirroring the federation's
// competition structure.
var yearBands = []yearBand{
	{2020, 2021, CategoryBabyBasket, CategoryBabyBasket},
	{2018, 2019, CategoryMini8, CategoryMini8},
	{2016, 2017, CategoryMini10, CategoryMini10},
	{2014, 2015, CategoryMini12, CategoryMini12},
	{2012, 2013, CategorySub14M, CategorySub14F},
	{2010, 2011, CategorySub16M, CategorySub16F},
	{2008, 2009, CategorySub18M, CategorySub18F},
	{2003, 2007, CategorySub23M, CategorySeniorF},
	{1991, 2002, CategorySeniorM, CategorySeniorF},
}

const mastersUntilYear = 1990

// Classify maps a birth date and gender to the season's competitive bracket.
// Birth years outside every band (including the zero time) fall back to
// CategoryNone.
func Classify(birthDate time.Time, gender Gender) Category {
	if birthDate.IsZero() {
		return CategoryNone
	}
	year := birthDate.Year()
	for _, band := range yearBands {
		if year >= band.from && year <= band.to {
			if gender == GenderFemale {
				return band.female
			}
			return band.male
		}
	}
	if year <= mastersUntilYear && year > 1900 {
		return CategoryMasters
	}
	return CategoryNone
}

// Categories returns every assignable bracket label, in age order, for form
// dropdowns and admin overrides.
func Categories() []Category {
	return []Category{
		CategoryBabyBasket, CategoryMini8, CategoryMini10, CategoryMini12,
		CategorySub14M, CategorySub14F,
		CategorySub16M, CategorySub16F,
		CategorySub18M, CategorySub18F,
		CategorySub23M, CategorySeniorM, CategorySeniorF,
		CategoryMasters, CategoryNone,
	}
}
