package domain

import (
	"github.com/shopspring/decimal"
)

type Store struct {
	ID              string
	Name            string
	Address         string
	Phone           string
	DeliveryFee     decimal.Decimal
	MinimumOrder    decimal.Decimal
	Active          bool
	AcceptingOrders bool
}

// ProductPrice is a store's current quote for one SKU, as returned by the
// store pricing API.
type ProductPrice struct {
	SKU          string
	ProductName  string
	RegularPrice decimal.Decimal
	SalePrice    decimal.Decimal
	OnSale       bool
	InStock      bool
}

// EffectivePrice is the sale price when the item is on sale, otherwise the
// regular price.
func (p ProductPrice) EffectivePrice() decimal.Decimal {
	if p.OnSale && p.SalePrice.IsPositive() {
		return p.SalePrice
	}
	return p.RegularPrice
}
