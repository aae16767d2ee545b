package core

// RevenueReport summarises completed payments over a closed date range.
// TotalRevenue always equals MembershipRevenue plus OtherRevenue and the sum
// of BreakdownByMethod.
type RevenueReport struct {
	PeriodStart       Date                    `json:"period_start"`
	PeriodEnd         Date                    `json:"period_end"`
	TotalRevenue      Money                   `json:"total_revenue"`
	MembershipRevenue Money                   `json:"membership_revenue"`
	OtherRevenue      Money                   `json:"other_revenue"`
	PaymentCount      int                     `json:"payment_count"`
	BreakdownByMethod map[PaymentMethod]Money `json:"breakdown_by_method"`
}

// NewRevenueReport returns an empty report for the period with every payment
// method present at zero.
func NewRevenueReport(start, end Date) RevenueReport {
	breakdown := make(map[PaymentMethod]Money, len(PaymentMethods))
	for _, m := range PaymentMethods {
		breakdown[m] = Money{}
	}
	return RevenueReport{PeriodStart: start, PeriodEnd: end, BreakdownByMethod: breakdown}
}

// Add counts p when it is completed and dated inside the period.
func (r *RevenueReport) Add(p Payment) bool {
	if p.Status != PaymentCompleted || !p.PaymentDate.Within(r.PeriodStart, r.PeriodEnd) {
		return false
	}
	r.TotalRevenue = r.TotalRevenue.Add(p.Amount)
	if p.MembershipID != nil {
		r.MembershipRevenue = r.MembershipRevenue.Add(p.Amount)
	} else {
		r.OtherRevenue = r.OtherRevenue.Add(p.Amount)
	}
	r.BreakdownByMethod[p.PaymentMethod] = r.BreakdownByMethod[p.PaymentMethod].Add(p.Amount)
	r.PaymentCount++
	return true
}

// BuildRevenueReport aggregates payments in a single pass. Input order does
// not matter and payments outside the period or not completed are ignored,
// so callers may pass a superset. A reversed period yields an empty report.
func BuildRevenueReport(start, end Date, payments []Payment) RevenueReport {
	r := NewRevenueReport(start, end)
	for _, p := range payments {
		r.Add(p)
	}
	return r
}
