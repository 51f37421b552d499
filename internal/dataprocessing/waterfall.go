package dataprocessing

import (
	"gdpwaterfall/pkg/contracts/domain"
)

// BuildWaterfall turns a year-ordered series into waterfall bars.
//
// Records without a usable GDP value are skipped: the base is the earliest
// valid record and each later delta is measured against the previous valid
// value, never against zero. End is taken as the observed value and Delta as
// End-Start, which equals value[i]-value[i-1] and keeps Start, End and Delta
// exactly consistent in float64.
func BuildWaterfall(series domain.Series) []domain.WaterfallItem {
	items := make([]domain.WaterfallItem, 0, len(series))
	for _, r := range series {
		if !r.HasGDP() {
			continue
		}

		if len(items) == 0 {
			items = append(items, domain.WaterfallItem{
				Year:       r.Year,
				Kind:       domain.ItemKindBase,
				Delta:      r.GDP,
				Start:      0,
				End:        r.GDP,
				Cumulative: r.GDP,
			})
			continue
		}

		start := items[len(items)-1].Cumulative
		end := r.GDP
		delta := end - start
		items = append(items, domain.WaterfallItem{
			Year:       r.Year,
			Kind:       domain.KindForDelta(delta),
			Delta:      delta,
			Start:      start,
			End:        end,
			Cumulative: end,
		})
	}
	return items
}

// Summarize derives the headline figures of a waterfall.
// It returns nil for an empty waterfall.
func Summarize(items []domain.WaterfallItem) *domain.WaterfallSummary {
	if len(items) == 0 {
		return nil
	}
	first, last := items[0], items[len(items)-1]
	summary := &domain.WaterfallSummary{
		FirstYear:  first.Year,
		LastYear:   last.Year,
		StartValue: first.End,
		EndValue:   last.Cumulative,
		NetChange:  last.Cumulative - first.End,
	}
	for _, item := range items[1:] {
		switch item.Kind {
		case domain.ItemKindIncrease:
			summary.Increases++
		case domain.ItemKindDecrease:
			summary.Decreases++
		}
	}
	return summary
}
