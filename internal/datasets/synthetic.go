package datasets

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// BlobsConfig configures GaussianBlobs generation.
type BlobsConfig struct {
	NumSamples  int     // Total number of samples (default: 1000)
	NumFeatures int     // Feature dimension (default: 2)
	NumClasses  int     // Number of blob centers (default: 3)
	CenterBox   float64 // Centers are drawn from U(-CenterBox, CenterBox) per feature (default: 10)
	StdDev      float64 // Standard deviation of each blob (default: 1)
	Seed        uint64  // Seed for reproducible generation
}

// GaussianBlobs generates an isotropic Gaussian blob classification dataset.
//
// Each class gets a random center; samples are drawn from a normal
// distribution around their class center. Classes are assigned round-robin
// so counts stay balanced. Useful for smoke-testing training loops without
// downloading real data.
func GaussianBlobs(config BlobsConfig) *Dataset {
	if config.NumSamples == 0 {
		config.NumSamples = 1000
	}
	if config.NumFeatures == 0 {
		config.NumFeatures = 2
	}
	if config.NumClasses == 0 {
		config.NumClasses = 3
	}
	if config.CenterBox == 0 {
		config.CenterBox = 10
	}
	if config.StdDev == 0 {
		config.StdDev = 1
	}

	src := rand.NewPCG(config.Seed, config.Seed+1)

	centerDist := distuv.Uniform{
		Min: -config.CenterBox,
		Max: config.CenterBox,
		Src: src,
	}
	centers := make([][]float64, config.NumClasses)
	for c := range centers {
		centers[c] = make([]float64, config.NumFeatures)
		for f := range centers[c] {
			centers[c][f] = centerDist.Rand()
		}
	}

	noise := distuv.Normal{
		Mu:    0,
		Sigma: config.StdDev,
		Src:   src,
	}

	images := make([][]float32, config.NumSamples)
	labels := make([]int32, config.NumSamples)
	for i := 0; i < config.NumSamples; i++ {
		class := i % config.NumClasses
		labels[i] = int32(class)

		images[i] = make([]float32, config.NumFeatures)
		for f := 0; f < config.NumFeatures; f++ {
			images[i][f] = float32(centers[class][f] + noise.Rand())
		}
	}

	return &Dataset{
		Images:      images,
		Labels:      labels,
		NumFeatures: config.NumFeatures,
		NumClasses:  config.NumClasses,
	}
}
