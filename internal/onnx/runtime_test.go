package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGPUConfig(t *testing.T) {
	assert.NoError(t, ValidateGPUConfig(GPUConfig{}))
	assert.NoError(t, ValidateGPUConfig(GPUConfig{UseGPU: true, DeviceID: 1}))
	assert.Error(t, ValidateGPUConfig(GPUConfig{UseGPU: true, DeviceID: -1}))

	// Device ID is only checked when GPU use is requested.
	assert.NoError(t, ValidateGPUConfig(GPUConfig{DeviceID: -1}))
}

func TestCUDAProviderSettings(t *testing.T) {
	settings := cudaProviderSettings(GPUConfig{UseGPU: true, DeviceID: 2})
	assert.Equal(t, "2", settings["device_id"])
	assert.NotContains(t, settings, "gpu_mem_limit", "no limit key when unlimited")

	settings = cudaProviderSettings(GPUConfig{UseGPU: true, MemoryLimitMB: 2048})
	assert.Equal(t, "2147483648", settings["gpu_mem_limit"], "limit is passed in bytes")
}

func TestLibraryCandidates(t *testing.T) {
	gpu := libraryCandidates(true)
	require.NotEmpty(t, gpu)
	assert.Equal(t, "/opt/onnxruntime/gpu/lib/libonnxruntime.so", gpu[0], "GPU build is tried first")

	cpu := libraryCandidates(false)
	assert.NotContains(t, cpu, "/opt/onnxruntime/gpu/lib/libonnxruntime.so")
}
