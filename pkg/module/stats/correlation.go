package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/perflens/bottleneck-analyzer/pkg/model"
)

// Component pairs whose simultaneous pressure is worth surfacing.
// A simultaneous-threshold-crossing check keeps the signal interpretable;
// this is deliberately not a statistical correlation coefficient.
var pressurePairs = [][2]string{
	{model.ComponentCPU, model.ComponentMemory},
	{model.ComponentNetwork, model.ComponentDatabase},
}

// FindCoOccurring reports known component pairs that both produced at
// least one result in this pass
func FindCoOccurring(results []model.BottleneckResult) []model.CorrelationFinding {
	seen := map[string]bool{}
	for _, r := range results {
		seen[r.Component] = true
	}

	var findings []model.CorrelationFinding
	for _, pair := range pressurePairs {
		if seen[pair[0]] && seen[pair[1]] {
			components := []string{pair[0], pair[1]}
			sort.Strings(components)
			findings = append(findings, model.CorrelationFinding{
				Components: components,
				Description: fmt.Sprintf("simultaneous pressure on %s within the same pass",
					strings.Join(components, " and ")),
			})
		}
	}
	return findings
}
