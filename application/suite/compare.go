package suite

import (
	"fmt"
	"sort"

	"github.com/pmezard/go-difflib/difflib"

	"storefront_e2e/domain/entities"
)

// Compare renders a unified diff of scenario statuses between two runs.
// An empty string means every scenario kept its status.
func Compare(previous, current *entities.RunReport) (string, error) {
	if previous == nil || current == nil {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        statusLines(previous),
		B:        statusLines(current),
		FromFile: "run " + previous.ID,
		ToFile:   "run " + current.ID,
		Context:  0,
	})
}

func statusLines(report *entities.RunReport) []string {
	lines := make([]string, 0, len(report.Results))
	for _, res := range report.Results {
		lines = append(lines, fmt.Sprintf("%s %s\n", res.ScenarioID, res.Status))
	}
	sort.Strings(lines)
	return lines
}
