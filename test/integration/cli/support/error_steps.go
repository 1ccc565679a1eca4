package support

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/plastiscan/internal/pipeline"
	"github.com/cucumber/godog"
)

// theErrorShouldMention verifies the command error or stderr contains text.
func (testCtx *TestContext) theErrorShouldMention(text string) error {
	if testCtx.LastError == nil {
		return errors.New("expected an error but the command succeeded")
	}
	if strings.Contains(testCtx.LastError.Error(), text) || strings.Contains(testCtx.LastStderr, text) {
		return nil
	}
	return fmt.Errorf("error does not mention '%s'\nError: %v\nStderr: %s", text, testCtx.LastError, testCtx.LastStderr)
}

func (testCtx *TestContext) theOutputShouldReportAMissingInput() error {
	return testCtx.theOutputShouldContain(pipeline.ErrInputNotFound.Error())
}

func (testCtx *TestContext) theOutputShouldReportAnUndecodableInput() error {
	return testCtx.theOutputShouldContain(pipeline.ErrDecodeFailure.Error())
}

// RegisterErrorSteps registers error reporting steps.
func (testCtx *TestContext) RegisterErrorSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^the output should report a missing input$`, testCtx.theOutputShouldReportAMissingInput)
	sc.Step(`^the output should report an undecodable input$`, testCtx.theOutputShouldReportAnUndecodableInput)
}
