package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cropvision/yodet/internal/imgutil"
	"github.com/cropvision/yodet/internal/models"
	"github.com/cropvision/yodet/internal/pipeline"
)

// detectResult is the JSON summary printed for one input file.
type detectResult struct {
	Filename   string            `json:"filename"`
	Output     string            `json:"output,omitempty"`
	Detections []detectionRecord `json:"detections"`
	Error      string            `json:"error,omitempty"`
	Skipped    bool              `json:"skipped,omitempty"`
}

type detectionRecord struct {
	Class      string  `json:"class"`
	Confidence float32 `json:"confidence"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
}

// detectCmd represents the detect command.
var detectCmd = &cobra.Command{
	Use:   "detect [flags] <image> [image...]",
	Short: "Run detection on local image files",
	Long: `Run object detection on one or more image files, writing annotated
JPEGs and printing a JSON summary of the detections.

Examples:
  yodet detect leaf.jpg
  yodet detect photos/*.png --output results/
  yodet detect batch/*.jpg --continue-on-error --confidence 0.4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	modelPath := cfg.Detector.ModelPath
	if cmd.Flags().Changed("model") {
		modelPath, _ = cmd.Flags().GetString("model")
	}
	if modelPath == "" {
		modelPath = models.GetDetectionModelPath(cfg.ModelsDir)
	}

	labelsPath := cfg.Detector.LabelsPath
	if labelsPath == "" {
		if candidate := models.GetLabelsPath(cfg.ModelsDir); models.ValidateModelExists(candidate) == nil {
			labelsPath = candidate
		}
	}

	confidence := cfg.Detector.Confidence
	if cmd.Flags().Changed("confidence") {
		v, _ := cmd.Flags().GetFloat64("confidence")
		confidence = float32(v)
	}

	outputDir, _ := cmd.Flags().GetString("output")
	continueOnError, _ := cmd.Flags().GetBool("continue-on-error")
	gpuEnabled, _ := cmd.Flags().GetBool("gpu")

	pl, err := pipeline.NewBuilder().
		WithModelPath(modelPath).
		WithLabelsPath(labelsPath).
		WithConfidenceThreshold(confidence).
		WithIoUThreshold(cfg.Detector.IoUThreshold).
		WithJPEGQuality(cfg.Output.JPEGQuality).
		WithNumThreads(cfg.Detector.NumThreads).
		WithGPU(gpuEnabled, cfg.GPU.Device).
		WithGPUMemoryLimit(cfg.GPU.MemoryLimitMB).
		Build()
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	defer func() { _ = pl.Close() }()

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	results, failed := detectFiles(pl, args, outputDir, continueOnError)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	if failed > 0 && !continueOnError {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}

// detectFiles runs the pipeline over each path. Without
// continue-on-error, processing stops at the first failure.
func detectFiles(pl *pipeline.Pipeline, paths []string, outputDir string, continueOnError bool) ([]detectResult, int) {
	results := make([]detectResult, 0, len(paths))
	failed := 0

	for _, path := range paths {
		result := detectFile(pl, path, outputDir)
		results = append(results, result)

		if result.Error != "" {
			failed++
			if !continueOnError {
				break
			}
		}
	}
	return results, failed
}

func detectFile(pl *pipeline.Pipeline, path, outputDir string) detectResult {
	result := detectResult{Filename: path}

	if !imgutil.IsSupportedImage(path) {
		result.Skipped = true
		slog.Debug("skipping unsupported file", "path", path)
		return result
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	encoded, detections, err := pl.ProcessImage(data)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	for _, det := range detections {
		result.Detections = append(result.Detections, detectionRecord{
			Class:      det.ClassName,
			Confidence: det.Confidence,
			X1:         det.Box.MinX,
			Y1:         det.Box.MinY,
			X2:         det.Box.MaxX,
			Y2:         det.Box.MaxY,
		})
	}

	if outputDir != "" {
		outPath := annotatedPath(outputDir, path)
		if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
			result.Error = err.Error()
			return result
		}
		result.Output = outPath
	}
	return result
}

// annotatedPath builds the output filename for an annotated image.
func annotatedPath(outputDir, inputPath string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, stem+"_annotated.jpg")
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().StringP("output", "o", "", "directory for annotated output images")
	detectCmd.Flags().String("model", "", "override detection model path")
	detectCmd.Flags().Float64("confidence", 0.25, "minimum detection confidence (0..1)")
	detectCmd.Flags().Bool("continue-on-error", false, "process remaining files after a failure")
	detectCmd.Flags().Bool("gpu", false, "enable CUDA acceleration")
}
