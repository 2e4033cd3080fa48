package service

import (
	"fmt"

	"cuentame/internal/apierror"

	"github.com/shopspring/decimal"
)

// MontoMaximo is the largest amount a decimal(12,2) column holds.
var MontoMaximo = decimal.New(999999999999, -2)

// MaxCantidadLinea caps the quantity of a single order line.
const MaxCantidadLinea = 1000

// montoValido reports whether d is a non-negative amount with at most two
// decimals that is not above MontoMaximo. Exponent and coefficient size are
// checked before any arithmetic, since rescaling 1e50000000 would expand it
// digit by digit.
func montoValido(d decimal.Decimal) bool {
	if d.IsNegative() {
		return false
	}
	exp := d.Exponent()
	if exp < -20 || exp > 12 || d.Coefficient().BitLen() > 128 {
		return false
	}
	if exp < -2 && !d.Equal(d.Truncate(2)) {
		return false
	}
	return d.LessThanOrEqual(MontoMaximo)
}

// validarMonto returns a ValidationError naming campo when d is out of range.
func validarMonto(d decimal.Decimal, campo string) error {
	if montoValido(d) {
		return nil
	}
	return apierror.Validation("", fmt.Sprintf(
		"%s debe estar entre 0 y %s con máximo 2 decimales", campo, MontoMaximo.StringFixed(2)))
}
