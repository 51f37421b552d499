package domain

import (
	"fmt"
	"strings"
)

// ItemKind classifies a waterfall bar
type ItemKind int

const (
	ItemKindBase ItemKind = iota
	ItemKindIncrease
	ItemKindDecrease
)

func (k ItemKind) String() string {
	switch k {
	case ItemKindBase:
		return "base"
	case ItemKindIncrease:
		return "increase"
	case ItemKindDecrease:
		return "decrease"
	default:
		return fmt.Sprintf("ItemKind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler
func (k ItemKind) MarshalText() ([]byte, error) {
	switch k {
	case ItemKindBase, ItemKindIncrease, ItemKindDecrease:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("invalid item kind %d", int(k))
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *ItemKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "base":
		*k = ItemKindBase
	case "increase":
		*k = ItemKindIncrease
	case "decrease":
		*k = ItemKindDecrease
	default:
		return fmt.Errorf("unknown item kind %q", string(text))
	}
	return nil
}

// KindForDelta classifies a non-base step. A zero delta counts as an increase.
func KindForDelta(delta float64) ItemKind {
	if delta >= 0 {
		return ItemKindIncrease
	}
	return ItemKindDecrease
}

// WaterfallItem is one bar of the chart: the base value or a signed change
// from the previous valid year.
type WaterfallItem struct {
	Year       int      `json:"year"`
	Kind       ItemKind `json:"kind"`
	Delta      float64  `json:"delta"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Cumulative float64  `json:"cumulative"`
}

// WaterfallSummary holds the figures shown next to a chart
type WaterfallSummary struct {
	FirstYear  int     `json:"first_year"`
	LastYear   int     `json:"last_year"`
	StartValue float64 `json:"start_value"`
	EndValue   float64 `json:"end_value"`
	NetChange  float64 `json:"net_change"`
	Increases  int     `json:"increases"`
	Decreases  int     `json:"decreases"`
}

// ChartState tells the renderer whether there is anything to draw
type ChartState string

const (
	ChartStateOK     ChartState = "ok"
	ChartStateNoData ChartState = "no_data"
)

// WaterfallChart is the payload handed to the rendering front end
type WaterfallChart struct {
	Country string            `json:"country"`
	State   ChartState        `json:"state"`
	Message string            `json:"message,omitempty"`
	Items   []WaterfallItem   `json:"items"`
	Summary *WaterfallSummary `json:"summary,omitempty"`
}

// Empty reports whether the chart has no bars
func (c *WaterfallChart) Empty() bool {
	return c == nil || len(c.Items) == 0
}
