package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cropvision/yodet/internal/config"
	"github.com/cropvision/yodet/internal/models"
	"github.com/cropvision/yodet/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP detection API",
	Long: `Start an HTTP server that runs object detection on uploaded images.

The server provides the following endpoints:
  GET  /            - API status and welcome message
  POST /api/process - Process a batch of uploaded images
  GET  /healthz     - Health check endpoint
  GET  /models      - List available models
  GET  /metrics     - Prometheus metrics
  WS   /ws/process  - Per-file streaming processing

The detection model is loaded once at startup; the server refuses to
start if it cannot be loaded.

Examples:
  yodet serve
  yodet serve --port 8000
  yodet serve --model models/best_14.onnx --confidence 0.4`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	host := cfg.Server.Host
	if cmd.Flags().Changed("host") {
		host, _ = cmd.Flags().GetString("host")
	}

	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}

	corsOrigins := cfg.Server.CORSOriginList()
	if cmd.Flags().Changed("cors-origins") {
		raw, _ := cmd.Flags().GetString("cors-origins")
		override := config.ServerConfig{CORSOrigins: raw}
		corsOrigins = override.CORSOriginList()
	}

	maxUploadMB := cfg.Server.MaxUploadMB
	if cmd.Flags().Changed("max-upload-size") {
		maxUploadMB, _ = cmd.Flags().GetInt("max-upload-size")
	}

	timeout := cfg.Server.TimeoutSec
	if cmd.Flags().Changed("timeout") {
		timeout, _ = cmd.Flags().GetInt("timeout")
	}

	shutdownTimeout := cfg.Server.ShutdownTimeoutSec
	if cmd.Flags().Changed("shutdown-timeout") {
		shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
	}

	modelPath := cfg.Detector.ModelPath
	if cmd.Flags().Changed("model") {
		modelPath, _ = cmd.Flags().GetString("model")
	}
	if modelPath == "" {
		modelPath = models.GetDetectionModelPath(cfg.ModelsDir)
	}

	labelsPath := cfg.Detector.LabelsPath
	if cmd.Flags().Changed("labels") {
		labelsPath, _ = cmd.Flags().GetString("labels")
	}
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

	iou := cfg.Detector.IoUThreshold
	if cmd.Flags().Changed("iou-threshold") {
		v, _ := cmd.Flags().GetFloat64("iou-threshold")
		iou = float32(v)
	}

	gpuEnabled := cfg.GPU.Enabled
	if cmd.Flags().Changed("gpu") {
		gpuEnabled, _ = cmd.Flags().GetBool("gpu")
	}

	serverConfig := server.Config{
		Host:             host,
		Port:             port,
		CORSOrigins:      corsOrigins,
		MaxUploadMB:      int64(maxUploadMB),
		TimeoutSec:       timeout,
		ModelsDir:        cfg.ModelsDir,
		ModelPath:        modelPath,
		LabelsPath:       labelsPath,
		Confidence:       confidence,
		IoUThreshold:     iou,
		InputSize:        cfg.Detector.InputSize,
		NumThreads:       cfg.Detector.NumThreads,
		GPUEnabled:       gpuEnabled,
		GPUDevice:        cfg.GPU.Device,
		GPUMemoryLimitMB: cfg.GPU.MemoryLimitMB,
		JPEGQuality:      cfg.Output.JPEGQuality,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	detectionServer, err := server.NewServer(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	defer func() { _ = detectionServer.Close() }()

	mux := http.NewServeMux()
	detectionServer.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(timeout) * time.Second,
		WriteTimeout:      time.Duration(timeout) * time.Second,
	}

	go func() {
		slog.Info("starting detection server", "host", host, "port", port, "model", modelPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(shutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := detectionServer.Close(); err != nil {
		slog.Error("server cleanup error", "error", err)
	}

	slog.Info("graceful shutdown completed")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "0.0.0.0", "server host")
	serveCmd.Flags().IntP("port", "p", 8000, "server port")
	serveCmd.Flags().String("cors-origins", "*", "comma-separated CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 120, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().String("model", "", "override detection model path")
	serveCmd.Flags().String("labels", "", "override class labels file path")
	serveCmd.Flags().Float64("confidence", 0.25, "minimum detection confidence (0..1)")
	serveCmd.Flags().Float64("iou-threshold", 0.45, "NMS IoU threshold (0..1)")
	serveCmd.Flags().Bool("gpu", false, "enable CUDA acceleration")
}
