package evaluation

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const controllerDiff = `diff --git a/src/controllers/user.ts b/src/controllers/user.ts
new file mode 100644
--- /dev/null
+++ b/src/controllers/user.ts
@@ -0,0 +1,3 @@
+export class UserController {
+  list() { return []; }
+}
`

const testSuite = `
base_dir: fixtures
cases:
  - name: order service
    file_path: src/services/order.ts
    kind: modified
    diff: "export function processOrder(order: Order) { return order; }"
    expected:
      impacted: true
      signals: ["path:services", "syntactic:function:"]
  - name: format helper
    file_path: src/utils/format.ts
    kind: modified
    diff: "export const pad = (s: string) => s.padStart(2);"
    expected:
      impacted: false
  - name: new controller
    file_path: src/controllers/user.ts
    kind: added
    diff_file: controller.diff
    expected:
      impacted: true
      signals: ["path:controllers"]
  - name: deleted file
    file_path: src/services/legacy.ts
    kind: deleted
    expected:
      impacted: false
  - name: mislabelled helper
    file_path: src/utils/totals.ts
    kind: modified
    diff: "const total = calculateTotal(items);"
    expected:
      impacted: false
  - name: missing fixture
    file_path: src/services/billing.ts
    kind: modified
    diff_file: missing.diff
    expected:
      impacted: true
`

func newTestEvaluator(t *testing.T, rules string) *Evaluator {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fixtures"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fixtures", "controller.diff"), []byte(controllerDiff), 0644))
	suitePath := writeSuite(t, dir, testSuite)

	rulesPath := ""
	if rules != "" {
		rulesPath = filepath.Join(dir, "rules.yaml")
		require.NoError(t, os.WriteFile(rulesPath, []byte(rules), 0644))
	}

	evaluator, err := NewEvaluator(suitePath, rulesPath, nil)
	require.NoError(t, err)
	return evaluator
}

func TestEvaluatorRun(t *testing.T) {
	evaluator := newTestEvaluator(t, "")

	run, err := evaluator.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "default", run.RulesSource)
	require.Len(t, run.Results, 6)

	byName := make(map[string]int)
	for i, r := range run.Results {
		byName[r.TestCase.Name] = i
	}

	order := run.Results[byName["order service"]]
	assert.True(t, order.Correct)
	assert.Equal(t, 1.0, order.Score)
	assert.Contains(t, order.Verdict.Signals, "path:services")

	controller := run.Results[byName["new controller"]]
	assert.True(t, controller.Correct)
	assert.Contains(t, controller.Verdict.Signals, "path:controllers")

	assert.True(t, run.Results[byName["format helper"]].Correct)
	assert.Equal(t, []string{"file deleted"}, run.Results[byName["deleted file"]].Verdict.Signals)
	assert.False(t, run.Results[byName["mislabelled helper"]].Correct)

	missing := run.Results[byName["missing fixture"]]
	assert.False(t, missing.Correct)
	assert.Zero(t, missing.Score)
	require.Len(t, missing.Errors, 1)
	assert.Contains(t, missing.Errors[0], "missing.diff")

	assert.Equal(t, 2, run.Confusion.TruePositives)
	assert.Equal(t, 1, run.Confusion.FalsePositives)
	assert.Equal(t, 2, run.Confusion.TrueNegatives)
	assert.Equal(t, 1, run.Confusion.FalseNegatives)
	assert.InDelta(t, 4.0/6.0, run.Stats.Accuracy, 1e-9)
	assert.False(t, run.EndTime.Before(run.StartTime))
}

func TestEvaluatorRun_CustomRules(t *testing.T) {
	evaluator := newTestEvaluator(t, "keywords: [payroll]\n")

	run, err := evaluator.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, run.RulesSource, "rules.yaml")
	for _, r := range run.Results {
		if r.TestCase.Name == "mislabelled helper" {
			assert.True(t, r.Correct, "calculate is not a keyword in the custom table")
		}
	}
}

func TestEvaluatorRun_Cancelled(t *testing.T) {
	evaluator := newTestEvaluator(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := evaluator.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunCases_Subset(t *testing.T) {
	evaluator := newTestEvaluator(t, "")

	run, err := evaluator.RunCases(context.Background(), FilterByName(evaluator.Suite().Cases, "order service"))
	require.NoError(t, err)
	require.Len(t, run.Results, 1)
	assert.Equal(t, 1.0, run.Stats.Accuracy)
}

func TestNewEvaluator_BadRules(t *testing.T) {
	dir := t.TempDir()
	suitePath := writeSuite(t, dir, "cases:\n  - {name: a, file_path: a.ts, kind: added}\n")
	rulesPath := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte("patterns:\n  - {name: broken, pattern: \"(\"}\n"), 0644))

	_, err := NewEvaluator(suitePath, rulesPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load rules")
}

func TestPrintSummaryAndFailures(t *testing.T) {
	color.NoColor = true
	evaluator := newTestEvaluator(t, "")

	run, err := evaluator.Run(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	PrintSummary(&out, run)
	assert.Contains(t, out.String(), "PASS order service")
	assert.Contains(t, out.String(), "FAIL mislabelled helper")
	assert.Contains(t, out.String(), "ERROR missing fixture")
	assert.Contains(t, out.String(), "Accuracy:  66.67%")
	assert.Contains(t, out.String(), "Confusion: TP=2 FP=1 TN=2 FN=1")

	out.Reset()
	PrintFailures(&out, run)
	assert.Contains(t, out.String(), "- mislabelled helper (src/utils/totals.ts)")
	assert.Contains(t, out.String(), "signals: lexical:calculate")
	assert.NotContains(t, out.String(), "order service")
}
