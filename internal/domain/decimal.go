package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseDecimal coerces any numeric input to an exact decimal. Quantities
// and monetary values must never be held as binary floats; every assignment
// into a domain type goes through this conversion.
//
// Accepted inputs: decimal.Decimal, string, json.Number, the integer types,
// and float64 (converted via its shortest decimal representation, so 3.14
// stays 3.14). Anything else, or a non-numeric string, fails with
// ErrValidation.
func ParseDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case string:
		d, err := decimal.NewFromString(x)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: %q is not numeric", ErrValidation, x)
		}
		return d, nil
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: %q is not numeric", ErrValidation, x)
		}
		return d, nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case nil:
		return decimal.Decimal{}, fmt.Errorf("%w: nil is not numeric", ErrValidation)
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: unsupported numeric type %T", ErrValidation, v)
	}
}
