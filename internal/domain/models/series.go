package models

import "time"

// TimeSeriesPoint is a single dated observation of an instrument value.
// A series is ordered by date, unique per date (last wins on duplicates).
type TimeSeriesPoint struct {
	Date         time.Time `json:"date"`
	InstrumentID string    `json:"instrument_id"`
	Value        float64   `json:"value"`
}

// Series is a date-ordered sequence of points for one instrument.
type Series []TimeSeriesPoint

// Values returns the value column in series order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Dedupe collapses duplicate dates, keeping the last observation per date,
// preserving order of first appearance.
func (s Series) Dedupe() Series {
	if len(s) == 0 {
		return s
	}
	idx := make(map[string]int, len(s))
	out := make(Series, 0, len(s))
	for _, p := range s {
		day := p.Date.Format("2006-01-02")
		if i, ok := idx[day]; ok {
			out[i] = p
			continue
		}
		idx[day] = len(out)
		out = append(out, p)
	}
	return out
}
