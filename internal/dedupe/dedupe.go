// Package dedupe collapses structurally identical records extracted from
// one file into a single survivor per group, merging negotiated-price
// ranges across the group.
package dedupe

import (
	"github.com/shopspring/decimal"

	"github.com/gyeh/chargefeed/internal/model"
)

// Key is the grouping key for one record: description concatenated with
// the canonical rendering of its code set, so records whose code lists
// differ only in order collide into the same group.
func Key(rec *model.PricedProcedure) string {
	return rec.Description + "|" + rec.Codes.Canonical()
}

// Dedupe collapses one file's extracted records. Singleton groups pass
// through unchanged; multi-member groups keep the best-scoring candidate
// with its negotiated range widened to the extremes observed across the
// whole group. Output order is first-seen order of the group key.
func Dedupe(records []*model.PricedProcedure) []*model.PricedProcedure {
	groups := make(map[string][]*model.PricedProcedure)
	var order []string

	for _, rec := range records {
		k := Key(rec)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], rec)
	}

	out := make([]*model.PricedProcedure, 0, len(order))
	for _, k := range order {
		group := groups[k]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		out = append(out, collapse(group))
	}
	return out
}

// collapse selects the survivor and merges the group's negotiated range
// onto it. The widest observed range wins even when neither bound came
// from the price-winning candidate.
func collapse(group []*model.PricedProcedure) *model.PricedProcedure {
	best := group[0]
	bestScore := score(best)
	for _, cand := range group[1:] {
		if s := score(cand); s > bestScore {
			best, bestScore = cand, s
		}
	}

	var min, max *decimal.Decimal
	for _, cand := range group {
		if cand.NegotiatedMin != nil && (min == nil || cand.NegotiatedMin.LessThan(*min)) {
			min = cand.NegotiatedMin
		}
		if cand.NegotiatedMax != nil && (max == nil || cand.NegotiatedMax.GreaterThan(*max)) {
			max = cand.NegotiatedMax
		}
	}

	survivor := *best
	if min != nil {
		m := *min
		survivor.NegotiatedMin = &m
	}
	if max != nil {
		m := *max
		survivor.NegotiatedMax = &m
	}
	return &survivor
}

// score ranks a candidate: a present cash price always outranks a
// gross-only candidate regardless of magnitude, and candidates with
// neither rank last.
func score(rec *model.PricedProcedure) float64 {
	if rec.CashPrice != nil {
		return 1000 + rec.CashPrice.InexactFloat64()
	}
	if rec.GrossCharge != nil {
		return 500 + 0.1*rec.GrossCharge.InexactFloat64()
	}
	return 0
}
