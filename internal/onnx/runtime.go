// Package onnx is the glue between this project and ONNX Runtime:
// input tensor construction, shared-library discovery, and CUDA
// provider configuration for inference sessions.
package onnx

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	ort "github.com/yalue/onnxruntime_go"
)

// GPUConfig selects CUDA acceleration for inference sessions. The
// zero value means CPU-only inference.
type GPUConfig struct {
	UseGPU        bool   // Run inference on a CUDA device
	DeviceID      int    // CUDA device ID
	MemoryLimitMB uint64 // Device memory cap in MB, 0 = unlimited
}

// ValidateGPUConfig checks a GPU configuration. CPU-only configs are
// always valid.
func ValidateGPUConfig(config GPUConfig) error {
	if config.UseGPU && config.DeviceID < 0 {
		return fmt.Errorf("GPU device ID must be non-negative, got %d", config.DeviceID)
	}
	return nil
}

// ConfigureSessionForGPU appends the CUDA execution provider to the
// session options when GPU use is requested. No-op for CPU configs.
func ConfigureSessionForGPU(options *ort.SessionOptions, config GPUConfig) error {
	if !config.UseGPU {
		return nil
	}

	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return fmt.Errorf("failed to create CUDA provider options (GPU may not be available): %w", err)
	}
	defer func() {
		if err := cudaOpts.Destroy(); err != nil {
			slog.Warn("failed to destroy CUDA provider options", "error", err)
		}
	}()

	settings := cudaProviderSettings(config)
	if err := cudaOpts.Update(settings); err != nil {
		return fmt.Errorf("failed to update CUDA provider options: %w", err)
	}
	if err := options.AppendExecutionProviderCUDA(cudaOpts); err != nil {
		return fmt.Errorf("failed to append CUDA execution provider: %w", err)
	}
	return nil
}

// cudaProviderSettings maps a GPUConfig onto ONNX Runtime CUDA
// provider keys.
func cudaProviderSettings(config GPUConfig) map[string]string {
	settings := map[string]string{
		"device_id": strconv.Itoa(config.DeviceID),
	}
	if config.MemoryLimitMB > 0 {
		// The provider expects the limit in bytes.
		settings["gpu_mem_limit"] = strconv.FormatUint(config.MemoryLimitMB*1024*1024, 10)
	}
	return settings
}

// sharedLibraryName returns the ONNX Runtime library filename for the
// current OS.
func sharedLibraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

// findProjectRoot walks up from the working directory to the first
// directory containing go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not find project root")
		}
		dir = parent
	}
}

// libraryCandidates lists shared-library paths to try, in preference
// order: GPU builds first when requested, system locations before a
// project-local onnxruntime/ directory.
func libraryCandidates(useGPU bool) []string {
	var candidates []string
	if useGPU {
		candidates = append(candidates, "/opt/onnxruntime/gpu/lib/libonnxruntime.so")
	}
	candidates = append(candidates,
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	)

	root, rootErr := findProjectRoot()
	libName, nameErr := sharedLibraryName()
	if rootErr == nil && nameErr == nil {
		if useGPU {
			candidates = append(candidates, filepath.Join(root, "onnxruntime", "gpu", "lib", libName))
		}
		candidates = append(candidates, filepath.Join(root, "onnxruntime", "lib", libName))
	}
	return candidates
}

// SetONNXLibraryPath points onnxruntime_go at the first ONNX Runtime
// shared library found on this system.
func SetONNXLibraryPath(useGPU bool) error {
	candidates := libraryCandidates(useGPU)
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			ort.SetSharedLibraryPath(path)
			return nil
		}
	}
	return fmt.Errorf("ONNX Runtime library not found, tried %d locations", len(candidates))
}
