package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agusespa/diffscribe/internal/types"
)

type ResultsManager struct {
	resultsDir string
}

func NewResultsManager(resultsDir string) *ResultsManager {
	return &ResultsManager{
		resultsDir: resultsDir,
	}
}

// Save writes the run as indented JSON and returns the file path
func (rm *ResultsManager) Save(run *types.EvaluationRun) (string, error) {
	if err := os.MkdirAll(rm.resultsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory at %s: %w", rm.resultsDir, err)
	}

	filename := fmt.Sprintf("eval_%s_%d.json", runName(run), run.StartTime.Unix())
	path := filepath.Join(rm.resultsDir, filename)

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write results file to %s: %w", path, err)
	}

	return path, nil
}

// runName derives a file-name-safe label from the suite and rule table names
func runName(run *types.EvaluationRun) string {
	base := func(p string) string {
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		if name == "." || name == "" || name == string(filepath.Separator) {
			return "default"
		}
		return name
	}
	return base(run.SuitePath) + "_" + base(run.RulesSource)
}
