// Package settle nets a group's per-session balances into a minimal set of
// directed payments using a greedy largest-first matching.
package settle

import "sort"

// Epsilon is the tolerance below which a balance counts as zero. Repeated
// float addition drifts, so amounts within a cent of zero are treated as
// settled. Do not tighten: recompute idempotence depends on this value.
const Epsilon = 0.01

// Balance is one (player, amount) row; Amount is signed, net of buy-in.
// The same player may appear in many rows (one per session).
type Balance struct {
	PlayerID string
	Amount   float64
}

// Entry is a single payment: FromPlayerID pays ToPlayerID Amount.
type Entry struct {
	FromPlayerID string
	ToPlayerID   string
	Amount       float64
}

type stake struct {
	playerID string
	amount   float64
}

// Compute aggregates balance rows per player, nets out already-settled
// payments, and greedily matches debtors against creditors, largest first.
// Players with no balance rows get no entry at all; they never appear in
// the output. The result is deterministic for identical inputs: ties in
// the descending amount sort are broken by player id.
//
// Credits and debits are not required to sum to zero (session balances are
// entered independently). The loop stops when either side is exhausted and
// any leftover is simply not settled in this pass.
func Compute(balances []Balance, settled []Entry) []Entry {
	adjusted := make(map[string]float64, len(balances))
	for _, b := range balances {
		adjusted[b.PlayerID] += b.Amount
	}

	// A settled payment already happened: the payer's debt improves, the
	// receiver's credit is already satisfied.
	for _, s := range settled {
		adjusted[s.FromPlayerID] += s.Amount
		adjusted[s.ToPlayerID] -= s.Amount
	}

	var creditors, debtors []stake
	for id, amt := range adjusted {
		switch {
		case amt > Epsilon:
			creditors = append(creditors, stake{playerID: id, amount: amt})
		case amt < -Epsilon:
			debtors = append(debtors, stake{playerID: id, amount: -amt})
		}
	}

	sortByAmountDesc(creditors)
	sortByAmountDesc(debtors)

	var out []Entry
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		payment := debtors[i].amount
		if creditors[j].amount < payment {
			payment = creditors[j].amount
		}

		if payment > 0 {
			out = append(out, Entry{
				FromPlayerID: debtors[i].playerID,
				ToPlayerID:   creditors[j].playerID,
				Amount:       payment,
			})
		}

		debtors[i].amount -= payment
		creditors[j].amount -= payment

		if debtors[i].amount <= Epsilon {
			i++
		}
		if creditors[j].amount <= Epsilon {
			j++
		}
	}

	return out
}

func sortByAmountDesc(s []stake) {
	sort.Slice(s, func(a, b int) bool {
		if s[a].amount != s[b].amount {
			return s[a].amount > s[b].amount
		}
		return s[a].playerID < s[b].playerID
	})
}
