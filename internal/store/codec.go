package store

import (
	"fmt"
	"strings"
	"time"

	"signalcore/internal/pkg/convert"
	"signalcore/internal/types"

	"github.com/tidwall/gjson"
)

// DecodeOutcome validates and coerces one raw trade-outcome document.
// The feed ships loosely-typed rows (numerics may arrive stringified,
// optional fields may be absent), so everything funnels through this
// boundary before reaching the engine. Rows without a symbol or a known
// outcome are rejected.
func DecodeOutcome(raw string) (types.TradeOutcome, error) {
	var out types.TradeOutcome
	if !gjson.Valid(raw) {
		return out, fmt.Errorf("outcome row is not valid JSON")
	}
	doc := gjson.Parse(raw)

	out.Symbol = strings.TrimSpace(doc.Get("symbol").String())
	if out.Symbol == "" {
		return out, fmt.Errorf("outcome row missing symbol")
	}
	out.ActualOutcome = types.Outcome(strings.ToUpper(strings.TrimSpace(doc.Get("actual_outcome").String())))
	if !out.ActualOutcome.Valid() {
		return out, fmt.Errorf("outcome row has unknown outcome %q", doc.Get("actual_outcome").String())
	}

	out.SignalType = types.Signal(strings.ToUpper(strings.TrimSpace(doc.Get("signal_type").String())))
	if !out.SignalType.Valid() {
		out.SignalType = types.SignalWait
	}

	out.EntryPrice = coerce(doc, "entry_price")
	out.TakeProfit = coerce(doc, "take_profit")
	out.StopLoss = coerce(doc, "stop_loss")
	out.ProfitLoss = coerce(doc, "profit_loss")
	out.MaxFavorableExcursion = coerce(doc, "max_favorable_excursion")
	out.MaxDrawdown = coerce(doc, "max_drawdown")
	out.Confidence = coerce(doc, "confidence")
	out.ProfitLikelihood = coerce(doc, "profit_likelihood")

	out.CreatedAt = parseTime(doc.Get("created_at"))
	return out, nil
}

// coerce pulls a numeric field that may be a number, a stringified
// number, or absent.
func coerce(doc gjson.Result, key string) float64 {
	field := doc.Get(key)
	if !field.Exists() {
		return 0
	}
	if field.Type == gjson.Number {
		return field.Float()
	}
	v, _ := convert.ToFloat64Ok(field.String())
	return v
}

func parseTime(field gjson.Result) time.Time {
	if !field.Exists() {
		return time.Time{}
	}
	if field.Type == gjson.Number {
		return time.Unix(field.Int(), 0).UTC()
	}
	s := strings.TrimSpace(field.String())
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
