package money

// zeroDecimalCurrencies lists ISO 4217 currencies with no minor unit.
var zeroDecimalCurrencies = map[string]struct{}{
	"JPY": {},
	"KRW": {},
	"VND": {},
	"CLP": {},
	"ISK": {},
	"UGX": {},
	"RWF": {},
	"XOF": {},
	"XAF": {},
}

// DecimalPlaces returns the number of minor-unit digits for a currency.
// Unknown currencies default to 2.
func DecimalPlaces(currency string) int32 {
	if _, ok := zeroDecimalCurrencies[currency]; ok {
		return 0
	}
	return 2
}
