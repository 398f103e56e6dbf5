package train

import (
	"fmt"
	"math/rand"

	"github.com/flintml/flint/internal/datasets"
	"github.com/flintml/flint/internal/optim"
	"github.com/flintml/flint/internal/serialization"
	"github.com/flintml/flint/internal/tensor"
)

// FitResult holds the learning curves and outcome of a Fit run.
type FitResult struct {
	TrainLosses     []float64 // Mean training loss per epoch
	TrainAccuracies []float64 // Training accuracy per epoch
	ValLosses       []float64 // Mean validation loss per epoch
	ValAccuracies   []float64 // Validation accuracy per epoch

	EpochsRun    int     // Number of epochs actually run
	BestEpoch    int     // Epoch (0-based) with the lowest validation loss
	BestValLoss  float64 // Lowest validation loss seen
	StoppedEarly bool    // Whether early stopping cut training short
}

// stateful is satisfied by optimizers that can export their state for
// checkpointing.
type stateful interface {
	StateDict() map[string]*tensor.RawTensor
}

// Fit trains the model for up to epochs passes over trainSet, evaluating on
// valSet after each one.
//
// Training data is re-batched (and by default re-shuffled) every epoch.
// With WithEarlyStopping, training stops once the validation loss has not
// improved for the configured number of epochs. With WithCheckpointPath,
// the best model seen so far is written after each improving epoch.
func (t *Trainer) Fit(trainSet, valSet *datasets.Dataset, epochs int, opts ...FitOption) (*FitResult, error) {
	options := defaultFitOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if epochs <= 0 {
		return nil, fmt.Errorf("epochs must be positive, got %d", epochs)
	}

	rng := rand.New(rand.NewSource(options.Seed))

	// Validation batches never change; build them once.
	valBatches, err := valSet.Batches(options.ValBatchSize, false, nil, t.backend)
	if err != nil {
		return nil, fmt.Errorf("failed to create validation batches: %w", err)
	}

	result := &FitResult{
		BestEpoch:   -1,
		BestValLoss: 0,
	}

	var step int64
	epochsWithoutImprovement := 0

	for epoch := 0; epoch < epochs; epoch++ {
		trainBatches, err := trainSet.Batches(options.BatchSize, options.Shuffle, rng, t.backend)
		if err != nil {
			return nil, fmt.Errorf("failed to create training batches: %w", err)
		}

		trainResult := t.TrainEpoch(trainBatches)
		valResult := t.TestEpoch(valBatches)
		step += int64(len(trainBatches))

		result.TrainLosses = append(result.TrainLosses, trainResult.Loss)
		result.TrainAccuracies = append(result.TrainAccuracies, trainResult.Accuracy)
		result.ValLosses = append(result.ValLosses, valResult.Loss)
		result.ValAccuracies = append(result.ValAccuracies, valResult.Accuracy)
		result.EpochsRun = epoch + 1

		if options.Logger != nil {
			options.Logger.Printf("epoch %d/%d: train_loss=%.4f train_acc=%.2f%% val_loss=%.4f val_acc=%.2f%%",
				epoch+1, epochs,
				trainResult.Loss, trainResult.Accuracy*100,
				valResult.Loss, valResult.Accuracy*100)
		}

		improved := result.BestEpoch < 0 || valResult.Loss < result.BestValLoss-options.MinDelta
		if improved {
			result.BestEpoch = epoch
			result.BestValLoss = valResult.Loss
			epochsWithoutImprovement = 0

			if options.CheckpointPath != "" {
				if err := t.saveCheckpoint(options.CheckpointPath, epoch, step, valResult.Loss); err != nil {
					return nil, fmt.Errorf("failed to save checkpoint: %w", err)
				}
				if options.Logger != nil {
					options.Logger.Printf("saved checkpoint to %s (val_loss=%.4f)", options.CheckpointPath, valResult.Loss)
				}
			}
		} else {
			epochsWithoutImprovement++
			if options.Patience > 0 && epochsWithoutImprovement >= options.Patience {
				result.StoppedEarly = true
				if options.Logger != nil {
					options.Logger.Printf("early stopping at epoch %d (no improvement for %d epochs)",
						epoch+1, epochsWithoutImprovement)
				}
				break
			}
		}
	}

	return result, nil
}

func (t *Trainer) saveCheckpoint(path string, epoch int, step int64, valLoss float64) error {
	var optimizerState map[string]*tensor.RawTensor
	if s, ok := t.optimizer.(stateful); ok {
		optimizerState = s.StateDict()
	}

	meta := serialization.CheckpointMeta{
		Epoch:         epoch,
		Step:          step,
		Loss:          valLoss,
		OptimizerType: optimizerName(t.optimizer),
		OptimizerConfig: map[string]any{
			"lr": t.optimizer.GetLR(),
		},
	}

	return serialization.SaveCheckpoint(path, t.model.StateDict(), optimizerState, fmt.Sprintf("%T", t.model), meta)
}

func optimizerName(o optim.Optimizer) string {
	switch o.(type) {
	case *optim.SGD:
		return "SGD"
	case *optim.RMSProp:
		return "RMSProp"
	case *optim.Adam:
		return "Adam"
	default:
		return fmt.Sprintf("%T", o)
	}
}
