package train

import "log"

// FitOptions configures the Fit training driver.
type FitOptions struct {
	// BatchSize for training batches.
	BatchSize int

	// ValBatchSize for validation batches. Larger than BatchSize by
	// default since no gradients are kept.
	ValBatchSize int

	// Shuffle training data before each epoch.
	Shuffle bool

	// Seed for the shuffle RNG.
	Seed int64

	// Patience is the number of epochs without validation loss improvement
	// before training stops early. 0 disables early stopping.
	Patience int

	// MinDelta is the minimum validation loss improvement that resets the
	// patience counter.
	MinDelta float64

	// CheckpointPath, when set, is where the best model seen so far is
	// saved after each improving epoch.
	CheckpointPath string

	// Logger receives per-epoch progress lines. Nil silences logging.
	Logger *log.Logger
}

// FitOption mutates FitOptions.
type FitOption func(options *FitOptions)

func defaultFitOptions() FitOptions {
	return FitOptions{
		BatchSize:    32,
		ValBatchSize: 256,
		Shuffle:      true,
		Seed:         1,
	}
}

// WithBatchSize sets the training batch size.
func WithBatchSize(batchSize int) FitOption {
	return func(options *FitOptions) {
		options.BatchSize = batchSize
	}
}

// WithValBatchSize sets the validation batch size.
func WithValBatchSize(valBatchSize int) FitOption {
	return func(options *FitOptions) {
		options.ValBatchSize = valBatchSize
	}
}

// WithShuffle controls per-epoch shuffling of the training data.
func WithShuffle(shuffle bool) FitOption {
	return func(options *FitOptions) {
		options.Shuffle = shuffle
	}
}

// WithSeed sets the shuffle RNG seed.
func WithSeed(seed int64) FitOption {
	return func(options *FitOptions) {
		options.Seed = seed
	}
}

// WithEarlyStopping stops training after patience epochs without the
// validation loss improving by at least minDelta.
func WithEarlyStopping(patience int, minDelta float64) FitOption {
	return func(options *FitOptions) {
		options.Patience = patience
		options.MinDelta = minDelta
	}
}

// WithCheckpointPath saves the best model (by validation loss) to path.
func WithCheckpointPath(path string) FitOption {
	return func(options *FitOptions) {
		options.CheckpointPath = path
	}
}

// WithLogger sets the progress logger.
func WithLogger(logger *log.Logger) FitOption {
	return func(options *FitOptions) {
		options.Logger = logger
	}
}
