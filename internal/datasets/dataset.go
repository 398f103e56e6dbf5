// Package datasets provides in-memory datasets and mini-batching for
// training image classifiers.
package datasets

import (
	"fmt"
	"math/rand"

	"github.com/flintml/flint/internal/tensor"
)

// Dataset holds a labeled set of flattened feature vectors.
type Dataset struct {
	Images      [][]float32 // [num_samples, num_features]
	Labels      []int32     // [num_samples]
	NumFeatures int
	NumClasses  int
}

// NumSamples returns the total number of samples in the dataset.
func (d *Dataset) NumSamples() int {
	return len(d.Images)
}

// Split splits the dataset into train and validation sets.
//
// validationRatio is the fraction of data held out for validation
// (e.g., 0.2 for 20%). The split is positional; shuffle happens at
// batching time.
func (d *Dataset) Split(validationRatio float32) (*Dataset, *Dataset) {
	numSamples := d.NumSamples()
	splitIdx := int(float32(numSamples) * (1.0 - validationRatio))

	train := &Dataset{
		Images:      d.Images[:splitIdx],
		Labels:      d.Labels[:splitIdx],
		NumFeatures: d.NumFeatures,
		NumClasses:  d.NumClasses,
	}
	validation := &Dataset{
		Images:      d.Images[splitIdx:],
		Labels:      d.Labels[splitIdx:],
		NumFeatures: d.NumFeatures,
		NumClasses:  d.NumClasses,
	}
	return train, validation
}

// Batch represents a mini-batch for training.
type Batch struct {
	Images *tensor.Tensor[float32] // [batch_size, num_features]
	Labels *tensor.Tensor[int32]   // [batch_size]
	Size   int
}

// Batches splits the dataset into mini-batches.
//
// When shuffle is true, sample order is randomized with rng before batching;
// rng may be nil when shuffle is false. The last batch may be smaller if the
// dataset does not divide evenly.
func (d *Dataset) Batches(batchSize int, shuffle bool, rng *rand.Rand, backend tensor.Backend) ([]*Batch, error) {
	numSamples := d.NumSamples()
	if numSamples != len(d.Labels) {
		return nil, fmt.Errorf("images and labels length mismatch: %d vs %d", numSamples, len(d.Labels))
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	indices := make([]int, numSamples)
	for i := range indices {
		indices[i] = i
	}
	if shuffle {
		rng.Shuffle(numSamples, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	numBatches := (numSamples + batchSize - 1) / batchSize
	batches := make([]*Batch, 0, numBatches)

	for start := 0; start < numSamples; start += batchSize {
		end := start + batchSize
		if end > numSamples {
			end = numSamples
		}
		currentBatchSize := end - start

		imagesRaw, err := tensor.NewRaw(
			tensor.Shape{currentBatchSize, d.NumFeatures},
			tensor.Float32,
			backend.Device(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create images tensor: %w", err)
		}

		labelsRaw, err := tensor.NewRaw(
			tensor.Shape{currentBatchSize},
			tensor.Int32,
			backend.Device(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create labels tensor: %w", err)
		}

		imagesData := imagesRaw.AsFloat32()
		labelsData := labelsRaw.AsInt32()
		for j := start; j < end; j++ {
			idx := indices[j]
			copy(imagesData[(j-start)*d.NumFeatures:(j-start+1)*d.NumFeatures], d.Images[idx])
			labelsData[j-start] = d.Labels[idx]
		}

		batches = append(batches, &Batch{
			Images: tensor.New[float32](imagesRaw, backend),
			Labels: tensor.New[int32](labelsRaw, backend),
			Size:   currentBatchSize,
		})
	}

	return batches, nil
}
