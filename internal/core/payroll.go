package core

import "github.com/shopspring/decimal"

// Retirement fund contribution rates applied to the fund base of a salary
// paid in the base currency.
var (
	EPFEmployeeRate = decimal.RequireFromString("0.08")
	EPFEmployerRate = decimal.RequireFromString("0.12")
	ETFEmployerRate = decimal.RequireFromString("0.03")
)

// FundEligible reports whether the record accrues fund contributions:
// only salaries paid in the base currency do.
func (r IncomeRecord) FundEligible() bool {
	return r.Type == Salary && r.Currency.IsBase()
}

// FundBase is the amount the contribution rates are applied to.
func (r IncomeRecord) FundBase() decimal.Decimal {
	if r.IsAllowanceForFunds {
		return r.BasicAmount.Add(r.Allowance)
	}
	return r.BasicAmount
}

// Recompute derives the fund contributions and take-home pay of r in place.
// It must run before every create and update; calling it twice on an
// unchanged record yields the same values.
func Recompute(r *IncomeRecord) {
	if r.FundEligible() {
		base := r.FundBase()
		r.EPFUser = Round2(base.Mul(EPFEmployeeRate))
		r.EPFEmployer = Round2(base.Mul(EPFEmployerRate))
		r.ETFEmployer = Round2(base.Mul(ETFEmployerRate))
	} else {
		r.EPFUser = decimal.Zero
		r.EPFEmployer = decimal.Zero
		r.ETFEmployer = decimal.Zero
	}

	takeHome := r.BasicAmount.
		Add(r.Allowance).
		Sub(r.EPFUser).
		Sub(r.StampDuty).
		Sub(r.OtherDeductions)
	if r.IsTaxPaid {
		takeHome = takeHome.Sub(r.Tax)
	}
	r.TakeHome = Round2(takeHome)
}
