package evaluation

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/agusespa/diffscribe/internal/types"
)

// LoadSuite loads an evaluation suite from a YAML file. A relative base_dir is
// resolved against the suite file's directory.
func LoadSuite(path string) (*types.EvaluationSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file at %s: %w", path, err)
	}

	var suite types.EvaluationSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite file %s: %w", path, err)
	}

	if !filepath.IsAbs(suite.BaseDir) {
		suite.BaseDir = filepath.Join(filepath.Dir(path), suite.BaseDir)
	}

	if err := ValidateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite %s: %w", path, err)
	}
	return &suite, nil
}

// ValidateCase validates a single test case
func ValidateCase(tc types.TestCase) error {
	if tc.Name == "" {
		return fmt.Errorf("missing required 'name' field")
	}
	if tc.FilePath == "" {
		return fmt.Errorf("case %s: missing required 'file_path' field", tc.Name)
	}
	if _, err := types.ParseChangeKind(tc.Kind); err != nil {
		return fmt.Errorf("case %s: %w", tc.Name, err)
	}
	if tc.DiffFile != "" && tc.Diff != "" {
		return fmt.Errorf("case %s: 'diff' and 'diff_file' are mutually exclusive", tc.Name)
	}
	return nil
}

func ValidateSuite(suite *types.EvaluationSuite) error {
	if len(suite.Cases) == 0 {
		return fmt.Errorf("no test cases found")
	}

	names := make(map[string]bool)
	for _, tc := range suite.Cases {
		if err := ValidateCase(tc); err != nil {
			return err
		}

		if names[tc.Name] {
			return fmt.Errorf("duplicate test case name: %s", tc.Name)
		}
		names[tc.Name] = true
	}

	return nil
}

// FilterByName filters cases by name, returns all if name is empty
func FilterByName(cases []types.TestCase, name string) []types.TestCase {
	if name == "" {
		return cases
	}

	var filtered []types.TestCase
	for _, tc := range cases {
		if tc.Name == name {
			filtered = append(filtered, tc)
		}
	}
	return filtered
}

func ListCaseNames(suite *types.EvaluationSuite) []string {
	names := make([]string, len(suite.Cases))
	for i, tc := range suite.Cases {
		names[i] = tc.Name
	}
	return names
}

// Record builds the change record a test case describes, reading its diff file
// from the suite's base directory.
func Record(suite *types.EvaluationSuite, tc types.TestCase) (types.ChangeRecord, error) {
	kind, err := types.ParseChangeKind(tc.Kind)
	if err != nil {
		return types.ChangeRecord{}, err
	}

	diff := tc.Diff
	if tc.DiffFile != "" {
		diffPath := filepath.Join(suite.BaseDir, tc.DiffFile)
		data, err := os.ReadFile(diffPath)
		if err != nil {
			return types.ChangeRecord{}, fmt.Errorf("failed to read diff file %s: %w", diffPath, err)
		}
		diff = string(data)
	}

	return types.ChangeRecord{
		FilePath: tc.FilePath,
		Kind:     kind,
		Author:   "evaluation",
		CommitID: tc.Name,
		Diff:     diff,
	}, nil
}
