package nn

import (
	"fmt"
	"math"

	"github.com/flintml/flint/internal/tensor"
)

// CrossEntropyBackend is implemented by backends providing a fused
// softmax + negative-log-likelihood with gradient tracking.
type CrossEntropyBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

// CrossEntropyLoss computes cross-entropy loss for multi-class
// classification.
//
// It expects raw logits [batch_size, num_classes] plus int32 class indices
// [batch_size], and uses the log-sum-exp decomposition for numerical
// stability. The gradient is the classic softmax(logits) - onehot(targets),
// averaged over the batch.
type CrossEntropyLoss struct {
	backend tensor.Backend
}

// NewCrossEntropyLoss creates a new cross-entropy loss function.
func NewCrossEntropyLoss(backend tensor.Backend) *CrossEntropyLoss {
	return &CrossEntropyLoss{backend: backend}
}

// Forward computes the mean cross-entropy loss over the batch.
//
// With an autodiff-aware backend the fused operation is recorded on the tape;
// otherwise the loss is computed directly (forward-only).
func (c *CrossEntropyLoss) Forward(
	logits *tensor.Tensor[float32],
	targets *tensor.Tensor[int32],
) *tensor.Tensor[float32] {
	if backend, ok := c.backend.(CrossEntropyBackend); ok {
		return tensor.New[float32](backend.CrossEntropy(logits.Raw(), targets.Raw()), c.backend)
	}

	// Fallback for non-autodiff backends.
	shape := logits.Shape()
	if len(shape) != 2 {
		panic("CrossEntropyLoss: logits must be 2D [batch_size, num_classes]")
	}
	batch, classes := shape[0], shape[1]

	targetData := targets.Data()
	if len(targetData) != batch {
		panic("CrossEntropyLoss: targets must have shape [batch_size]")
	}

	logitData := logits.Data()
	var total float32
	for i := 0; i < batch; i++ {
		target := int(targetData[i])
		if target < 0 || target >= classes {
			panic(fmt.Sprintf("CrossEntropyLoss: target %d out of range [0, %d)", target, classes))
		}
		total -= logSoftmaxRow(logitData[i*classes:(i+1)*classes], target)
	}

	loss := tensor.Zeros[float32](tensor.Shape{1}, c.backend)
	loss.Data()[0] = total / float32(batch)
	return loss
}

// logSoftmaxRow returns log softmax(row)[target] using the log-sum-exp trick.
func logSoftmaxRow(row []float32, target int) float32 {
	maxVal := row[0]
	for _, v := range row {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float64
	for _, v := range row {
		sum += math.Exp(float64(v - maxVal))
	}
	return row[target] - maxVal - float32(math.Log(sum))
}
