package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validTransfer() BookTransfer {
	return BookTransfer{
		AssetManagerID: 1,
		AssetID:        "AAPL",
		SourceBookID:   "BOOK-A",
		TargetBookID:   "BOOK-B",
		WashBookID:     "WASH",
		Quantity:       decimal.RequireFromString("10"),
		Price:          decimal.RequireFromString("12.5"),
		Currency:       "USD",
	}
}

func TestBookTransferValidate(t *testing.T) {
	assert.NoError(t, validTransfer().Validate())

	tests := []struct {
		name   string
		mutate func(*BookTransfer)
	}{
		{"missing owner", func(bt *BookTransfer) { bt.AssetManagerID = 0 }},
		{"missing asset", func(bt *BookTransfer) { bt.AssetID = "" }},
		{"missing source", func(bt *BookTransfer) { bt.SourceBookID = "" }},
		{"missing target", func(bt *BookTransfer) { bt.TargetBookID = "" }},
		{"missing wash", func(bt *BookTransfer) { bt.WashBookID = "" }},
		{"same books", func(bt *BookTransfer) { bt.TargetBookID = bt.SourceBookID }},
		{"zero quantity", func(bt *BookTransfer) { bt.Quantity = decimal.Zero }},
		{"negative quantity", func(bt *BookTransfer) { bt.Quantity = decimal.RequireFromString("-1") }},
		{"zero price", func(bt *BookTransfer) { bt.Price = decimal.Zero }},
		{"missing currency", func(bt *BookTransfer) { bt.Currency = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bt := validTransfer()
			tt.mutate(&bt)
			assert.ErrorIs(t, bt.Validate(), ErrValidation)
		})
	}
}
