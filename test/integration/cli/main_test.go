package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/plastiscan/test/integration/cli/support"
	"github.com/cucumber/godog"
)

// scenarioInitializer gives each scenario its own sandbox directory and
// removes it afterwards.
func scenarioInitializer(t *testing.T) func(*godog.ScenarioContext) {
	return func(sc *godog.ScenarioContext) {
		testCtx, err := support.NewTestContext()
		if err != nil {
			t.Fatalf("create scenario sandbox: %v", err)
		}

		testCtx.RegisterCommonSteps(sc)
		testCtx.RegisterImageSteps(sc)
		testCtx.RegisterErrorSteps(sc)

		sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
			if err := testCtx.Cleanup(); err != nil {
				t.Logf("cleanup %s: %v", testCtx.TempDir, err)
			}
			return ctx, nil
		})
	}
}

// TestFeatures runs every feature file as its own subtest. The CLI runs
// in-process, so no binary has to be built first. GODOG_FORMAT and
// GODOG_TAGS tune the run.
func TestFeatures(t *testing.T) {
	features, err := filepath.Glob(filepath.Join("features", "*.feature"))
	if err != nil {
		t.Fatalf("glob features: %v", err)
	}
	if len(features) == 0 {
		t.Fatal("no .feature files found in features/")
	}

	format := os.Getenv("GODOG_FORMAT")
	if format == "" {
		format = "pretty"
	}

	for _, path := range features {
		t.Run(filepath.Base(path), func(t *testing.T) {
			suite := godog.TestSuite{
				Name:                filepath.Base(path),
				ScenarioInitializer: scenarioInitializer(t),
				Options: &godog.Options{
					Format:   format,
					Tags:     os.Getenv("GODOG_TAGS"),
					Paths:    []string{path},
					Strict:   true,
					TestingT: t,
				},
			}
			if status := suite.Run(); status != 0 {
				t.Fatalf("godog exited with status %d for %s", status, path)
			}
		})
	}
}
