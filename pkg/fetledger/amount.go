package fetledger

import (
	"math/big"
	"strings"
)

// Decimals is the fixed precision of the FET token: 1 FET = 10^18 smallest units.
const Decimals = 18

var unitFactor = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// ToSmallestUnits converts a whole-FET amount into the chain's integer
// representation. Plan prices are whole token amounts, so int64 input is
// sufficient; the result is not.
func ToSmallestUnits(fet int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(fet), unitFactor)
}

// FormatFET renders a smallest-unit amount as a decimal FET string with
// trailing zeros trimmed, e.g. 250000000000000000000 -> "250" and
// 249900000000000000000 -> "249.9".
func FormatFET(amount *big.Int) string {
	if amount == nil {
		return "0"
	}

	abs := new(big.Int).Abs(amount)
	whole, frac := new(big.Int).QuoRem(abs, unitFactor, new(big.Int))

	out := whole.String()
	if frac.Sign() != 0 {
		digits := strings.TrimRight(leftPad(frac.String(), Decimals), "0")
		out += "." + digits
	}
	if amount.Sign() < 0 {
		out = "-" + out
	}
	return out
}

func leftPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
