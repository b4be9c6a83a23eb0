package domain

import (
	"encoding/xml"

	"github.com/shopspring/decimal"
)

// ContractItem is an issued policy sale. NetPrice is a snapshot of the rate
// at issue time; later rate edits never change it.
type ContractItem struct {
	XMLName    xml.Name        `json:"-" xml:"ContractItem"`
	ID         int64           `json:"contractId" xml:"ContractId"`
	CustomerID int64           `json:"customerId" xml:"CustomerId"`
	CoverageID int64           `json:"coverageId" xml:"CoverageId"`
	SaleDate   Date            `json:"saleDate" xml:"SaleDate"`
	NetPrice   decimal.Decimal `json:"netPrice" xml:"NetPrice"`
	Version    int64           `json:"version" xml:"Version"`

	// Populated only on single-item reads.
	Customer     *Customer     `json:"customer,omitempty" xml:"Customer,omitempty"`
	CoveragePlan *CoveragePlan `json:"coveragePlan,omitempty" xml:"CoveragePlan,omitempty"`
}

// Key returns the contract's identity.
func (c ContractItem) Key() int64 { return c.ID }
