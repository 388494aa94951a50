package support

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
	"github.com/quadra-ocr/quadra/cmd/quadra/cmd"
	"github.com/quadra-ocr/quadra/internal/pipeline"
	"github.com/quadra-ocr/quadra/internal/testutil"
)

const (
	testMapWidth  = 100
	testMapHeight = 40
)

// RegisterDetectSteps wires the detect command steps into the scenario.
func (testCtx *TestContext) RegisterDetectSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a blank probability map$`, testCtx.aBlankProbabilityMap)
	sc.Step(`^a probability map with (\d+) text regions? side by side$`, testCtx.aProbabilityMapWithRegionsSideBySide)
	sc.Step(`^a probability map with (\d+) text regions?$`, testCtx.aProbabilityMapWithRegions)
	sc.Step(`^I run detect with format "([^"]*)"$`, testCtx.iRunDetectWithFormat)
	sc.Step(`^I run detect on a missing file$`, testCtx.iRunDetectOnMissingFile)
	sc.Step(`^the command succeeds$`, testCtx.theCommandSucceeds)
	sc.Step(`^the command fails$`, testCtx.theCommandFails)
	sc.Step(`^the output contains (\d+) box(?:es)?$`, testCtx.theOutputContainsBoxes)
	sc.Step(`^all box coordinates lie within the map bounds$`, testCtx.allCoordinatesWithinBounds)
	sc.Step(`^the boxes are ordered left to right$`, testCtx.boxesOrderedLeftToRight)
	sc.Step(`^the output mentions "([^"]*)"$`, testCtx.theOutputMentions)
}

// writeMap saves a probability buffer as a grayscale PNG in the temp dir.
func (testCtx *TestContext) writeMap(data []float32, w, h int) error {
	path := filepath.Join(testCtx.TempDir, "probmap.png")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, testutil.GrayFromProbs(data, w, h)); err != nil {
		return err
	}
	testCtx.MapPath = path
	return nil
}

func (testCtx *TestContext) aBlankProbabilityMap() error {
	return testCtx.writeMap(testutil.UniformProbs(testMapWidth, testMapHeight, 0), testMapWidth, testMapHeight)
}

func (testCtx *TestContext) aProbabilityMapWithRegions(count int) error {
	data := testutil.UniformProbs(testMapWidth, testMapHeight, 0)
	for i := range count {
		y0 := 8 + i*14
		testutil.FillRect(data, testMapWidth, testMapHeight, 10, y0, 70, y0+10, 0.95)
	}
	return testCtx.writeMap(data, testMapWidth, testMapHeight)
}

func (testCtx *TestContext) aProbabilityMapWithRegionsSideBySide(count int) error {
	data := testutil.UniformProbs(testMapWidth, testMapHeight, 0)
	for i := range count {
		x0 := 5 + i*50
		testutil.FillRect(data, testMapWidth, testMapHeight, x0, 12, x0+30, 26, 0.95)
	}
	return testCtx.writeMap(data, testMapWidth, testMapHeight)
}

// runCommand executes the CLI in process, capturing combined output.
func (testCtx *TestContext) runCommand(args ...string) {
	root := cmd.GetRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	testCtx.LastError = root.Execute()
	testCtx.LastOutput = buf.String()
}

func (testCtx *TestContext) iRunDetectWithFormat(format string) error {
	if testCtx.MapPath == "" {
		return fmt.Errorf("no probability map prepared")
	}
	testCtx.runCommand("detect", testCtx.MapPath, "--format", format)
	return nil
}

func (testCtx *TestContext) iRunDetectOnMissingFile() error {
	testCtx.runCommand("detect", filepath.Join(testCtx.TempDir, "does-not-exist.png"), "--format", "json")
	return nil
}

func (testCtx *TestContext) theCommandSucceeds() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("command failed: %v\noutput: %s", testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theCommandFails() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("expected the command to fail, output: %s", testCtx.LastOutput)
	}
	return nil
}

// parseOutput decodes the JSON detection output from the last run.
func (testCtx *TestContext) parseOutput() (pipeline.DetectionOutput, error) {
	var out pipeline.DetectionOutput
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &out); err != nil {
		return out, fmt.Errorf("failed to parse output as JSON: %w\noutput: %s", err, testCtx.LastOutput)
	}
	return out, nil
}

func (testCtx *TestContext) theOutputContainsBoxes(count int) error {
	out, err := testCtx.parseOutput()
	if err != nil {
		return err
	}
	if len(out.Boxes) != count {
		return fmt.Errorf("expected %d boxes, got %d", count, len(out.Boxes))
	}
	return nil
}

func (testCtx *TestContext) allCoordinatesWithinBounds() error {
	out, err := testCtx.parseOutput()
	if err != nil {
		return err
	}
	for i, b := range out.Boxes {
		for _, p := range b.Points {
			if p.X < 0 || p.X > float64(out.Width-1) || p.Y < 0 || p.Y > float64(out.Height-1) {
				return fmt.Errorf("box %d vertex (%f,%f) outside %dx%d", i, p.X, p.Y, out.Width, out.Height)
			}
		}
	}
	return nil
}

func (testCtx *TestContext) boxesOrderedLeftToRight() error {
	out, err := testCtx.parseOutput()
	if err != nil {
		return err
	}
	for i := 1; i < len(out.Boxes); i++ {
		if out.Boxes[i].Points[0].X <= out.Boxes[i-1].Points[0].X {
			return fmt.Errorf("boxes not ordered left to right: %f then %f",
				out.Boxes[i-1].Points[0].X, out.Boxes[i].Points[0].X)
		}
	}
	return nil
}

func (testCtx *TestContext) theOutputMentions(fragment string) error {
	if !strings.Contains(testCtx.LastOutput, fragment) {
		return fmt.Errorf("output does not mention %q:\n%s", fragment, testCtx.LastOutput)
	}
	return nil
}
