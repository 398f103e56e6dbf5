package nn

import (
	"math"
	"math/rand"

	"github.com/flintml/flint/internal/tensor"
)

// Xavier initializes a weight tensor with Xavier/Glorot uniform values:
// U(-sqrt(6/(fan_in+fan_out)), sqrt(6/(fan_in+fan_out))).
//
// This keeps activation variance roughly constant across layers.
func Xavier(fanIn, fanOut int, shape tensor.Shape, backend tensor.Backend) *tensor.Tensor[float32] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = float32((rand.Float64()*2 - 1) * bound)
	}
	return t
}

// Kaiming initializes a weight tensor with Kaiming/He normal values:
// N(0, sqrt(2/fan_in)). Preferred for layers followed by ReLU.
func Kaiming(fanIn int, shape tensor.Shape, backend tensor.Backend) *tensor.Tensor[float32] {
	std := math.Sqrt(2.0 / float64(fanIn))

	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = float32(rand.NormFloat64() * std)
	}
	return t
}
