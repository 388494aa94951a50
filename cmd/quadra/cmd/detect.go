package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/quadra-ocr/quadra/internal/detector"
	"github.com/quadra-ocr/quadra/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	outputFormatJSON = "json"
	outputFormatText = "text"
)

// detectCmd represents the detect command.
var detectCmd = &cobra.Command{
	Use:   "detect [probability maps...]",
	Short: "Detect text boxes in probability maps",
	Long: `Convert one or more probability maps (grayscale images, white = text)
into oriented quadrilateral text boxes.

When --image is given, boxes are scaled to that image's dimensions and crops
or overlays can be written alongside the box output.

Examples:
  quadra detect probmap.png
  quadra detect probmap.png --format json --output boxes.json
  quadra detect probmap.png --image photo.jpg --crop-dir crops/
  quadra detect probmap.png --image photo.jpg --overlay-dir debug/`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runDetect,
}

func runDetect(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no input files provided")
	}

	cfg := GetConfig()
	format := cfg.Output.Format
	outputFile := cfg.Output.File
	cropDir := cfg.Output.CropDir
	overlayDir := cfg.Output.OverlayDir
	imagePath, _ := cmd.Flags().GetString("image")

	if format != outputFormatText && format != outputFormatJSON {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			format, strings.Join([]string{outputFormatText, outputFormatJSON}, ", "))
	}
	if (cropDir != "" || overlayDir != "") && imagePath == "" {
		return errors.New("--crop-dir and --overlay-dir require --image")
	}

	p, err := pipeline.New(cfg.Pipeline)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	var outputs []pipeline.DetectionOutput
	for _, path := range args {
		out, err := detectFile(cmd, p, path, imagePath, cropDir, overlayDir)
		if err != nil {
			return fmt.Errorf("processing %s: %w", path, err)
		}
		outputs = append(outputs, out)
	}

	rendered, err := renderOutputs(outputs, args, format)
	if err != nil {
		return err
	}
	if outputFile != "" {
		return os.WriteFile(outputFile, []byte(rendered), 0o644)
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}

// detectFile runs detection for one probability map and writes any requested
// crops and overlays.
func detectFile(cmd *cobra.Command, p *pipeline.Pipeline, mapPath, imagePath, cropDir, overlayDir string) (pipeline.DetectionOutput, error) {
	mapImg, err := imaging.Open(mapPath)
	if err != nil {
		return pipeline.DetectionOutput{}, fmt.Errorf("failed to open probability map: %w", err)
	}
	probMap := detector.ProbabilityMapFromGray(mapImg)
	defer probMap.Release()

	origW, origH := probMap.Width, probMap.Height
	var source image.Image = mapImg
	if imagePath != "" {
		source, err = imaging.Open(imagePath)
		if err != nil {
			return pipeline.DetectionOutput{}, fmt.Errorf("failed to open image: %w", err)
		}
		b := source.Bounds()
		origW, origH = b.Dx(), b.Dy()
	}
	if w, _ := cmd.Flags().GetInt("orig-width"); w > 0 {
		origW = w
	}
	if h, _ := cmd.Flags().GetInt("orig-height"); h > 0 {
		origH = h
	}

	boxes, err := p.Detect(cmd.Context(), probMap, origW, origH)
	if err != nil {
		return pipeline.DetectionOutput{}, err
	}

	base := strings.TrimSuffix(filepath.Base(mapPath), filepath.Ext(mapPath))
	if cropDir != "" {
		if err := writeCrops(cmd, p, source, boxes, cropDir, base); err != nil {
			return pipeline.DetectionOutput{}, err
		}
	}
	if overlayDir != "" {
		if err := os.MkdirAll(overlayDir, 0o755); err != nil {
			return pipeline.DetectionOutput{}, err
		}
		overlay := pipeline.Overlay(source, boxes)
		if err := imaging.Save(overlay, filepath.Join(overlayDir, base+"_overlay.png")); err != nil {
			return pipeline.DetectionOutput{}, fmt.Errorf("failed to save overlay: %w", err)
		}
	}

	return pipeline.NewDetectionOutput(boxes, origW, origH), nil
}

// writeCrops extracts every detected box from the source image and saves the
// crops as numbered PNGs.
func writeCrops(cmd *cobra.Command, p *pipeline.Pipeline, source image.Image, boxes []detector.DetectedBox, cropDir, base string) error {
	if err := os.MkdirAll(cropDir, 0o755); err != nil {
		return err
	}
	results, err := p.CropBoxes(cmd.Context(), source, boxes)
	if err != nil {
		return fmt.Errorf("failed to extract crops: %w", err)
	}
	for i, res := range results {
		path := filepath.Join(cropDir, fmt.Sprintf("%s_%03d.png", base, i))
		if err := imaging.Save(res.Img, path); err != nil {
			return fmt.Errorf("failed to save crop %s: %w", path, err)
		}
	}
	return nil
}

// renderOutputs formats detection results as JSON or plain text.
func renderOutputs(outputs []pipeline.DetectionOutput, names []string, format string) (string, error) {
	if format == outputFormatJSON {
		var data []byte
		var err error
		if len(outputs) == 1 {
			data, err = json.MarshalIndent(outputs[0], "", "  ")
		} else {
			data, err = json.MarshalIndent(outputs, "", "  ")
		}
		if err != nil {
			return "", fmt.Errorf("failed to encode results: %w", err)
		}
		return string(data) + "\n", nil
	}

	var sb strings.Builder
	for i, out := range outputs {
		if len(outputs) > 1 {
			fmt.Fprintf(&sb, "%s:\n", names[i])
		}
		fmt.Fprintf(&sb, "%d boxes (%dx%d)\n", len(out.Boxes), out.Width, out.Height)
		for j, b := range out.Boxes {
			fmt.Fprintf(&sb, "  %3d: conf=%.3f", j, b.Confidence)
			for _, pt := range b.Points {
				fmt.Fprintf(&sb, " (%.1f,%.1f)", pt.X, pt.Y)
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().String("format", "text", "output format (text, json)")
	detectCmd.Flags().String("output", "", "write results to file instead of stdout")
	detectCmd.Flags().String("image", "", "source image the probability map was computed from")
	detectCmd.Flags().String("crop-dir", "", "directory to write perspective-corrected crops to (requires --image)")
	detectCmd.Flags().String("overlay-dir", "", "directory to write detection overlays to (requires --image)")
	detectCmd.Flags().Int("orig-width", 0, "override original image width for coordinate scaling")
	detectCmd.Flags().Int("orig-height", 0, "override original image height for coordinate scaling")
	detectCmd.Flags().Float32("binary-threshold", 0, "binarization threshold override")
	detectCmd.Flags().Float32("box-threshold", 0, "box score threshold override")
	detectCmd.Flags().Float64("unclip-ratio", 0, "unclip expansion ratio override")

	_ = viper.BindPFlag("output.format", detectCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("output.file", detectCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("output.crop_dir", detectCmd.Flags().Lookup("crop-dir"))
	_ = viper.BindPFlag("output.overlay_dir", detectCmd.Flags().Lookup("overlay-dir"))
	_ = viper.BindPFlag("pipeline.detector.binary_threshold", detectCmd.Flags().Lookup("binary-threshold"))
	_ = viper.BindPFlag("pipeline.detector.box_score_threshold", detectCmd.Flags().Lookup("box-threshold"))
	_ = viper.BindPFlag("pipeline.detector.unclip_ratio", detectCmd.Flags().Lookup("unclip-ratio"))
}
