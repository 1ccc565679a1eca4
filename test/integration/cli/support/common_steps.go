package support

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/MeKo-Tech/plastiscan/cmd/plastiscan/cmd"
	"github.com/cucumber/godog"
)

// iRunCommand executes a plastiscan command line in-process, inside the
// scenario's temporary directory, with HOME pointing there as well.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteCommandVariables(command)
	testCtx.LastCommand = command

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] != "plastiscan" {
		return fmt.Errorf("unsupported command %q", parts[0])
	}

	restore, err := testCtx.enterEnvironment()
	if err != nil {
		return err
	}
	defer restore()

	root := cmd.NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(parts[1:])

	testCtx.LastError = root.Execute()
	testCtx.LastStdout = stdout.String()
	testCtx.LastStderr = stderr.String()
	return nil
}

// enterEnvironment switches into the scenario's directory and environment
// and returns a function undoing it.
func (testCtx *TestContext) enterEnvironment() (func(), error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if err := os.Chdir(testCtx.TempDir); err != nil {
		return nil, err
	}

	env := map[string]string{"HOME": testCtx.TempDir, "XDG_CONFIG_HOME": testCtx.Path(".config")}
	for k, v := range testCtx.EnvVars {
		env[k] = v
	}
	saved := make(map[string]*string, len(env))
	for k, v := range env {
		if old, ok := os.LookupEnv(k); ok {
			saved[k] = &old
		} else {
			saved[k] = nil
		}
		_ = os.Setenv(k, v)
	}
	logger := slog.Default()

	return func() {
		for k, old := range saved {
			if old == nil {
				_ = os.Unsetenv(k)
			} else {
				_ = os.Setenv(k, *old)
			}
		}
		slog.SetDefault(logger)
		_ = os.Chdir(wd)
	}, nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("command failed: %w\nOutput: %s", testCtx.LastError, testCtx.combinedOutput())
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.combinedOutput())
	}
	return nil
}

// theOutputShouldContain verifies stdout contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	expectedText = testCtx.substituteCommandVariables(expectedText)
	if !strings.Contains(testCtx.LastStdout, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastStdout)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	text = testCtx.substituteCommandVariables(text)
	if strings.Contains(testCtx.LastStdout, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastStdout)
	}
	return nil
}

func (testCtx *TestContext) theErrorOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastStderr, expectedText) {
		return fmt.Errorf("stderr does not contain '%s'\nActual stderr: %s", expectedText, testCtx.LastStderr)
	}
	return nil
}

// theOutputShouldBeValidJSON verifies stdout is a single JSON document.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	if !json.Valid([]byte(testCtx.LastStdout)) {
		return fmt.Errorf("output is not valid JSON: %s", testCtx.LastStdout)
	}
	return nil
}

// theOutputShouldBeValidCSV verifies stdout parses as CSV with the
// detection header.
func (testCtx *TestContext) theOutputShouldBeValidCSV() error {
	return checkCSV(testCtx.LastStdout)
}

func checkCSV(data string) error {
	records, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	if err != nil {
		return fmt.Errorf("output is not valid CSV: %w", err)
	}
	if len(records) == 0 {
		return errors.New("CSV output is empty")
	}
	want := "image,x_coordinate,y_coordinate,size,shape,color"
	if got := strings.Join(records[0], ","); got != want {
		return fmt.Errorf("unexpected CSV header %q, want %q", got, want)
	}
	return nil
}

// theFileShouldExist verifies a file exists in the scenario directory.
func (testCtx *TestContext) theFileShouldExist(name string) error {
	if _, err := os.Stat(testCtx.Path(name)); err != nil {
		return fmt.Errorf("expected file %s: %w", name, err)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldNotExist(name string) error {
	if _, err := os.Stat(testCtx.Path(name)); err == nil {
		return fmt.Errorf("file %s should not exist", name)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, content string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), content) {
		return fmt.Errorf("file %s does not contain '%s'\nActual content: %s", name, content, data)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldBeValidCSV(name string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}
	return checkCSV(string(data))
}

func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	testCtx.AddEnvVar(name, value)
	return nil
}

// aConfigFileWith writes a config file into the scenario directory.
func (testCtx *TestContext) aConfigFileWith(name string, content *godog.DocString) error {
	return os.WriteFile(testCtx.Path(name), []byte(content.Content), 0o600)
}

// RegisterCommonSteps registers command execution and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)

	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the error output should contain "([^"]*)"$`, testCtx.theErrorOutputShouldContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the output should be valid CSV$`, testCtx.theOutputShouldBeValidCSV)

	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should not exist$`, testCtx.theFileShouldNotExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the file "([^"]*)" should be valid CSV$`, testCtx.theFileShouldBeValidCSV)

	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
	sc.Step(`^a config file "([^"]*)" with:$`, testCtx.aConfigFileWith)
}
