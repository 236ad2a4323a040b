package onnx

import (
	"errors"
	"fmt"
)

// Tensor is a float32 tensor prepared as ONNX session input. Data is
// row-major, NCHW for images.
type Tensor struct {
	Data  []float32
	Shape []int64
}

// NewImageTensor builds a single-image tensor with shape [1, C, H, W].
// data must be length C*H*W in NCHW order.
func NewImageTensor(data []float32, c, h, w int) (Tensor, error) {
	if data == nil {
		return Tensor{}, errors.New("nil data")
	}
	if c <= 0 || h <= 0 || w <= 0 {
		return Tensor{}, fmt.Errorf("invalid tensor dimensions %dx%dx%d", c, h, w)
	}
	if len(data) != c*h*w {
		return Tensor{}, fmt.Errorf("unexpected data length: got %d, want %d", len(data), c*h*w)
	}
	return Tensor{
		Data:  data,
		Shape: []int64{1, int64(c), int64(h), int64(w)},
	}, nil
}
