package core

// Settlement is the net position of one partner over a set of split expenses.
type Settlement struct {
	MyPaid      Money
	PartnerPaid Money
	Total       Money
	Amount      Money // absolute amount to transfer
	IPayPartner bool
}

// Settle aggregates the split expenses of userID. Each real-world expense is
// stored once per partner, so only rows owned by userID are counted; other
// rows in rows are ignored. An odd total leaves a half cent, which is
// rounded up in Amount.
func Settle(userID string, rows []Transaction) Settlement {
	var s Settlement
	for _, t := range rows {
		if !countsTowardSettlement(userID, t) {
			continue
		}
		if t.PaidByUserID == userID {
			s.MyPaid = s.MyPaid.Add(t.Original())
		} else {
			s.PartnerPaid = s.PartnerPaid.Add(t.Original())
		}
	}
	s.Total = s.MyPaid.Add(s.PartnerPaid)

	// excess = my - total/2, kept doubled to stay in whole cents
	doubled := 2*s.MyPaid.Cents - s.Total.Cents
	s.IPayPartner = doubled < 0
	if doubled < 0 {
		doubled = -doubled
	}
	s.Amount = Money{Cents: (doubled + 1) / 2}
	return s
}

func countsTowardSettlement(userID string, t Transaction) bool {
	return t.UserID == userID &&
		t.IsSplit &&
		t.Kind == Expense &&
		t.PaidByUserID != ""
}
