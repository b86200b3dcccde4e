package gateway

import "github.com/shopspring/decimal"

// ToMinor: major → minor (sen/centavo), round half-up.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinor: minor → major, exact.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
