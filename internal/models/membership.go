package models

import "github.com/shopspring/decimal"

// Membership тарифный план: название, длительность и стоимость.
type Membership struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	DurationInMonths int             `json:"durationInMonths"`
	Fee              decimal.Decimal `json:"fee"`
}

// NewMembership тело запроса на создание тарифа.
type NewMembership struct {
	Name             string          `json:"name" validate:"required,max=100"`
	DurationInMonths int             `json:"durationInMonths" validate:"required,gt=0"`
	Fee              decimal.Decimal `json:"fee"`
}

func init() {
	// backend принимает суммы числами, а не строками
	decimal.MarshalJSONWithoutQuotes = true
}
