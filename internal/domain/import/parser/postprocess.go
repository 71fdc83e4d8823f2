package parser

import (
	"sort"
	"strings"
	"time"
)

type dedupKey struct {
	date        time.Time
	amount      string
	description string
}

// PostProcess cleans extracted records: balance lines, zero amounts and empty
// descriptions are dropped, exact (date, amount, description) duplicates are
// collapsed to their first occurrence, and the result is stably sorted by
// date. Applying it twice yields the same slice as applying it once.
func PostProcess(txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	seen := make(map[dedupKey]struct{}, len(txs))

	for _, tx := range txs {
		desc := strings.TrimSpace(tx.Description)
		if desc == "" || tx.Amount.IsZero() {
			continue
		}
		if strings.Contains(strings.ToLower(desc), "balance") {
			continue
		}

		key := dedupKey{
			date:        tx.Date.UTC(),
			amount:      tx.Amount.String(),
			description: tx.Description,
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tx)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
