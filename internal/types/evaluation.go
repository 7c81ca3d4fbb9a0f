package types

import "time"

// EvaluationSuite is a labelled set of change fixtures used to score the classifier
type EvaluationSuite struct {
	BaseDir string     `yaml:"base_dir" json:"base_dir"`
	Cases   []TestCase `yaml:"cases" json:"cases"`
}

type TestCase struct {
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	FilePath    string          `yaml:"file_path" json:"file_path"`
	Kind        string          `yaml:"kind" json:"kind"`
	DiffFile    string          `yaml:"diff_file,omitempty" json:"diff_file,omitempty"`
	Diff        string          `yaml:"diff,omitempty" json:"diff,omitempty"`
	Expected    ExpectedResults `yaml:"expected" json:"expected"`
}

type ExpectedResults struct {
	Impacted bool `yaml:"impacted" json:"impacted"`
	// Signals lists prefixes that must each match at least one fired signal.
	Signals []string `yaml:"signals,omitempty" json:"signals,omitempty"`
}

type TestCaseResult struct {
	TestCase      TestCase      `json:"test_case"`
	Verdict       Verdict       `json:"verdict"`
	Score         float64       `json:"score"`
	Correct       bool          `json:"correct"`
	ExecutionTime time.Duration `json:"execution_time"`
	Errors        []string      `json:"errors,omitempty"`
}

// ConfusionMatrix counts verdicts against expectations, "positive" meaning impacted
type ConfusionMatrix struct {
	TruePositives  int `json:"true_positives"`
	FalsePositives int `json:"false_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalseNegatives int `json:"false_negatives"`
}

type EvaluationStats struct {
	Accuracy        float64 `json:"accuracy"`
	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	F1              float64 `json:"f1"`
	AverageScore    float64 `json:"average_score"`
	DegradedRate    float64 `json:"degraded_rate"`
	AverageDuration float64 `json:"average_duration_ms"`
	DurationStdDev  float64 `json:"duration_std_dev_ms"`
	MinDuration     float64 `json:"min_duration_ms"`
	MaxDuration     float64 `json:"max_duration_ms"`
}

type EvaluationRun struct {
	SuitePath     string           `json:"suite_path"`
	RulesSource   string           `json:"rules_source"`
	StartTime     time.Time        `json:"start_time"`
	EndTime       time.Time        `json:"end_time"`
	TotalDuration time.Duration    `json:"total_duration"`
	Results       []TestCaseResult `json:"results"`
	Confusion     ConfusionMatrix  `json:"confusion"`
	Stats         EvaluationStats  `json:"stats"`
}
