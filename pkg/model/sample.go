package model

// Sample is a single observation of one metric at a point in time
type Sample struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// MetricsSeries is an ordered (oldest to newest) series for one label set
type MetricsSeries struct {
	Labels  map[string]string `json:"labels,omitempty"`
	Samples []Sample          `json:"samples"`
}

// Values extracts the raw values of the series in sample order
func (s MetricsSeries) Values() []float64 {
	values := make([]float64, 0, len(s.Samples))
	for _, sample := range s.Samples {
		values = append(values, sample.Value)
	}
	return values
}
