package domain

import (
	"encoding/xml"
	"errors"
)

// Customer is a policy holder. Rating reads its country and date of birth
// and never mutates it.
type Customer struct {
	XMLName     xml.Name `json:"-" xml:"Customer"`
	ID          int64    `json:"customerId" xml:"CustomerId"`
	Name        string   `json:"name" xml:"Name" validate:"required,max=200"`
	DateOfBirth Date     `json:"dateOfBirth" xml:"DateOfBirth"`
	Gender      Gender   `json:"gender" xml:"Gender" validate:"omitempty,oneof=Male Female Other"`
	Country     string   `json:"country" xml:"Country" validate:"required,max=64"`
	Version     int64    `json:"version" xml:"Version"`
}

// Key returns the customer's identity.
func (c Customer) Key() int64 { return c.ID }

// Validate checks the fields tags cannot express.
func (c Customer) Validate() error {
	if c.DateOfBirth.IsZero() {
		return errors.New("dateOfBirth is required")
	}
	return nil
}
