package nn

import "github.com/flintml/flint/internal/tensor"

// NumCorrect counts how many rows of logits predict the target class.
//
// logits is [batch_size, num_classes]; targets is [batch_size] class indices.
func NumCorrect(logits *tensor.Tensor[float32], targets *tensor.Tensor[int32]) int {
	shape := logits.Shape()
	batchSize := shape[0]
	numClasses := shape[1]

	logitsData := logits.Raw().AsFloat32()
	targetsData := targets.Raw().AsInt32()

	correct := 0
	for b := 0; b < batchSize; b++ {
		if argmaxRow(logitsData[b*numClasses:(b+1)*numClasses]) == int(targetsData[b]) {
			correct++
		}
	}
	return correct
}

// Accuracy computes classification accuracy for a batch, between 0 and 1.
func Accuracy(logits *tensor.Tensor[float32], targets *tensor.Tensor[int32]) float32 {
	batchSize := logits.Shape()[0]
	return float32(NumCorrect(logits, targets)) / float32(batchSize)
}

func argmaxRow(z []float32) int {
	maxIdx := 0
	maxVal := z[0]
	for i := 1; i < len(z); i++ {
		if z[i] > maxVal {
			maxVal = z[i]
			maxIdx = i
		}
	}
	return maxIdx
}
