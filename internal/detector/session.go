package detector

import (
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/cropvision/yodet/internal/onnx"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// initONNXRuntime locates the ONNX Runtime shared library and
// initializes the environment. Safe to call from multiple detectors;
// initialization happens once per process.
func initONNXRuntime(useGPU bool) error {
	ortInitOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if err := onnx.SetONNXLibraryPath(useGPU); err != nil {
			ortInitErr = fmt.Errorf("failed to locate ONNX Runtime library: %w", err)
			return
		}
		if err := ort.InitializeEnvironment(); err != nil {
			ortInitErr = fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
		}
	})
	return ortInitErr
}

// modelIO describes the single input and output of a detection model.
type modelIO struct {
	inputName  string
	outputName string
	inputSize  int // Static spatial size from the model, 0 if dynamic
}

// inspectModel reads input/output metadata from an ONNX model file.
func inspectModel(modelPath string) (modelIO, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return modelIO{}, fmt.Errorf("failed to read model metadata: %w", err)
	}
	if len(inputs) != 1 {
		return modelIO{}, fmt.Errorf("expected 1 model input, got %d", len(inputs))
	}
	if len(outputs) < 1 {
		return modelIO{}, fmt.Errorf("model has no outputs")
	}

	io := modelIO{
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
	}

	// A static NCHW input pins the letterbox size; dynamic axes show
	// up as -1 and leave the configured size in effect.
	dims := inputs[0].Dimensions
	if len(dims) == 4 && dims[2] > 0 && dims[2] == dims[3] {
		io.inputSize = int(dims[2])
	}

	return io, nil
}

// createSession builds a dynamic ONNX session for the model.
func createSession(config Config, io modelIO) (*ort.DynamicAdvancedSession, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := options.Destroy(); err != nil {
			slog.Warn("failed to destroy session options", "error", err)
		}
	}()

	if config.NumThreads > 0 {
		if err := options.SetIntraOpNumThreads(config.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	if err := onnx.ConfigureSessionForGPU(options, config.GPU); err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(
		config.ModelPath,
		[]string{io.inputName},
		[]string{io.outputName},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return session, nil
}
