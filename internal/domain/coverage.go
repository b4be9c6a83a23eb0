package domain

import (
	"encoding/xml"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// CoveragePlan is an insurance product with an eligibility window: a country
// and a date-of-birth range.
type CoveragePlan struct {
	XMLName             xml.Name `json:"-" xml:"CoveragePlan"`
	ID                  int64    `json:"planId" xml:"PlanId"`
	Name                string   `json:"planName" xml:"PlanName" validate:"max=200"`
	EligibilityCountry  string   `json:"eligibilityCountry" xml:"EligibilityCountry" validate:"required,max=64"`
	EligibilityDateFrom Date     `json:"eligibilityDateFrom" xml:"EligibilityDateFrom"`
	EligibilityDateTo   Date     `json:"eligibilityDateTo" xml:"EligibilityDateTo"`
	Version             int64    `json:"version" xml:"Version"`
}

// Key returns the plan's identity.
func (p CoveragePlan) Key() int64 { return p.ID }

// Validate checks the eligibility window.
func (p CoveragePlan) Validate() error {
	if p.EligibilityDateFrom.IsZero() || p.EligibilityDateTo.IsZero() {
		return errors.New("eligibilityDateFrom and eligibilityDateTo are required")
	}
	if !p.EligibilityDateFrom.Before(p.EligibilityDateTo) {
		return errors.New("eligibilityDateFrom must be before eligibilityDateTo")
	}
	return nil
}

// Eligible reports whether a customer from country born on dob falls inside
// the plan's window. Both bounds are exclusive; country matching ignores case.
func (p CoveragePlan) Eligible(country string, dob Date) bool {
	return strings.EqualFold(strings.TrimSpace(p.EligibilityCountry), strings.TrimSpace(country)) &&
		p.EligibilityDateFrom.Before(dob) &&
		dob.Before(p.EligibilityDateTo)
}

// RateChart prices one (plan, gender, age bracket) cell. CutoffAge is an
// exclusive upper bound on the customer's age.
type RateChart struct {
	XMLName   xml.Name        `json:"-" xml:"RateChart"`
	ID        int64           `json:"rateChartId" xml:"RateChartId"`
	PlanID    int64           `json:"planId" xml:"PlanId" validate:"required,gt=0"`
	Gender    Gender          `json:"gender" xml:"Gender" validate:"required,oneof=Male Female Other"`
	CutoffAge int             `json:"cutoffAge" xml:"CutoffAge" validate:"gt=0,lte=200"`
	NetPrice  decimal.Decimal `json:"netPrice" xml:"NetPrice"`
	Version   int64           `json:"version" xml:"Version"`
}

// Key returns the rate's identity.
func (r RateChart) Key() int64 { return r.ID }

// Validate rejects negative prices.
func (r RateChart) Validate() error {
	if r.NetPrice.IsNegative() {
		return errors.New("netPrice must not be negative")
	}
	return nil
}

// Covers reports whether the row applies to a customer of gender g and age.
func (r RateChart) Covers(g Gender, age int) bool {
	return r.Gender == g && age < r.CutoffAge
}
