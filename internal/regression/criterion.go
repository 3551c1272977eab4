// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Oct 18th 2026
// Project: Conditional Granger Causality Analysis of Multivariate Time Series
// Class: 02-613 at Carnegie Mellon University

package regression

import (
	"fmt"
	"strings"
)

// Criterion selects the information criterion used to rank lag orders.
type Criterion int

const (
	BIC Criterion = iota
	AIC
)

// ParseCriterion accepts "aic" or "bic" in any case.
func ParseCriterion(s string) (Criterion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bic":
		return BIC, nil
	case "aic":
		return AIC, nil
	default:
		return 0, fmt.Errorf("requires criterion to be 'bic' or 'aic', got %q", s)
	}
}

// String returns the lowercase criterion name.
func (c Criterion) String() string {
	switch c {
	case BIC:
		return "bic"
	case AIC:
		return "aic"
	default:
		return fmt.Sprintf("Criterion(%d)", int(c))
	}
}

// Valid reports whether c is one of the known criteria.
func (c Criterion) Valid() bool {
	return c == BIC || c == AIC
}

// Score returns the criterion value of fit; lower is better.
func (c Criterion) Score(fit *Fit) float64 {
	if c == AIC {
		return fit.AIC
	}
	return fit.BIC
}
