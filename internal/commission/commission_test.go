package commission

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeSettlement(t *testing.T) {
	tests := []struct {
		name          string
		price         string
		wantShare     string
		wantFee       string
	}{
		{"целая цена", "1000", "700", "300"},
		{"округление вниз", "99", "69", "30"},
		{"сценарий 500", "500", "350", "150"},
		{"копейки в цене", "10.50", "7", "3.50"},
		{"минимальная цена", "1", "1", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ComputeSettlement(dec(tt.price), DefaultPublisherRate)
			assert.True(t, s.PublisherShare.Equal(dec(tt.wantShare)),
				"доля издателя: получено %s", s.PublisherShare)
			assert.True(t, s.PlatformFee.Equal(dec(tt.wantFee)),
				"комиссия платформы: получено %s", s.PlatformFee)
		})
	}
}

func TestComputeSettlement_ExactSum(t *testing.T) {
	// Сумма частей всегда равна цене, без потерь на округлении.
	for _, price := range []string{"1", "7", "99", "99.99", "333.33", "500", "12345.67"} {
		p := dec(price)
		s := ComputeSettlement(p, DefaultPublisherRate)
		require.True(t, s.PublisherShare.Add(s.PlatformFee).Equal(p),
			"цена %s: %s + %s", price, s.PublisherShare, s.PlatformFee)
	}
}

func TestComputeDepositCommission(t *testing.T) {
	split := ComputeDepositCommission(dec("1000"), DefaultDepositFeeRate)
	assert.True(t, split.CreditedAmount.Equal(dec("950")))
	assert.True(t, split.PlatformFee.Equal(dec("50")))

	// Сумма частей равна пополнению.
	for _, amount := range []string{"1", "99", "1000", "333.33"} {
		a := dec(amount)
		s := ComputeDepositCommission(a, DefaultDepositFeeRate)
		require.True(t, s.CreditedAmount.Add(s.PlatformFee).Equal(a))
	}
}
