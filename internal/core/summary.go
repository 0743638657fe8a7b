package core

import "github.com/shopspring/decimal"

// NamedAmount represents an amount aggregated under a name (account or category).
type NamedAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Summary is the set of aggregates shown above the grid for the loaded rows.
type Summary struct {
	Count          int
	PendingCount   int
	ClearedCount   int
	Balance        decimal.Decimal
	ClearedBalance decimal.Decimal
	// ServerTotal is the total reported by the repository, which may exceed Count when paginated.
	ServerTotal int
	ByAccount   []NamedAmount
	ByCategory  []NamedAmount
}

// Summarize aggregates rows, preserving the first-seen order of accounts and categories.
func Summarize(rows []Transaction, serverTotal int) Summary {
	s := Summary{
		Count:          len(rows),
		Balance:        decimal.Zero,
		ClearedBalance: decimal.Zero,
		ServerTotal:    serverTotal,
	}
	byAccount := map[string]int{}
	byCategory := map[string]int{}
	for _, r := range rows {
		s.Balance = s.Balance.Add(r.Amount)
		if r.Pending {
			s.PendingCount++
		}
		if r.Cleared {
			s.ClearedCount++
			s.ClearedBalance = s.ClearedBalance.Add(r.Amount)
		}
		s.ByAccount = addNamed(s.ByAccount, byAccount, r.Account, r.Amount)
		s.ByCategory = addNamed(s.ByCategory, byCategory, r.Category, r.Amount)
	}
	if s.ServerTotal < s.Count-s.PendingCount {
		s.ServerTotal = s.Count - s.PendingCount
	}
	return s
}

func addNamed(list []NamedAmount, index map[string]int, name string, amount decimal.Decimal) []NamedAmount {
	if name == "" {
		name = "(none)"
	}
	if i, ok := index[name]; ok {
		list[i].Amount = list[i].Amount.Add(amount)
		return list
	}
	index[name] = len(list)
	return append(list, NamedAmount{Name: name, Amount: amount})
}
