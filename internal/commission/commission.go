package commission

import "github.com/shopspring/decimal"

// Ставки платформы по умолчанию.
var (
	// DefaultPublisherRate — доля издателя от цены размещения.
	DefaultPublisherRate = decimal.NewFromFloat(0.70)
	// DefaultDepositFeeRate — комиссия платформы при пополнении баланса.
	DefaultDepositFeeRate = decimal.NewFromFloat(0.05)
)

// Settlement — распределение цены размещения между издателем и платформой.
type Settlement struct {
	PublisherShare decimal.Decimal
	PlatformFee    decimal.Decimal
}

// DepositSplit — распределение пополнения между счётом рекламодателя
// и комиссией платформы.
type DepositSplit struct {
	CreditedAmount decimal.Decimal
	PlatformFee    decimal.Decimal
}

// ComputeSettlement делит цену размещения на долю издателя и комиссию
// платформы. Доля издателя округляется до целых единиц, комиссия — точный
// остаток, поэтому сумма частей всегда равна цене без потерь округления.
func ComputeSettlement(proposedPrice, publisherRate decimal.Decimal) Settlement {
	share := proposedPrice.Mul(publisherRate).Round(0)
	return Settlement{
		PublisherShare: share,
		PlatformFee:    proposedPrice.Sub(share),
	}
}

// ComputeDepositCommission считает комиссию платформы с пополнения.
// Комиссия округляется до целых единиц, рекламодателю зачисляется остаток.
func ComputeDepositCommission(depositAmount, feeRate decimal.Decimal) DepositSplit {
	fee := depositAmount.Mul(feeRate).Round(0)
	return DepositSplit{
		CreditedAmount: depositAmount.Sub(fee),
		PlatformFee:    fee,
	}
}
