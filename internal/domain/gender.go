package domain

import "strings"

// Gender is the closed set of genders a rate chart can be keyed on.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

var genders = []Gender{GenderMale, GenderFemale, GenderOther}

// LookupGender matches s case-insensitively against the known genders.
func LookupGender(s string) (Gender, bool) {
	s = strings.TrimSpace(s)
	for _, g := range genders {
		if strings.EqualFold(s, string(g)) {
			return g, true
		}
	}
	return "", false
}

// ParseGender is LookupGender with a fallback: anything unrecognised,
// including the empty string, is GenderOther.
func ParseGender(s string) Gender {
	if g, ok := LookupGender(s); ok {
		return g
	}
	return GenderOther
}

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	for _, k := range genders {
		if g == k {
			return true
		}
	}
	return false
}

// UnmarshalText canonicalises the case of known genders. Unknown values are
// kept so validation can reject them.
func (g *Gender) UnmarshalText(b []byte) error {
	if k, ok := LookupGender(string(b)); ok {
		*g = k
		return nil
	}
	*g = Gender(strings.TrimSpace(string(b)))
	return nil
}
