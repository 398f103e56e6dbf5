// Package main provides the Flint command line interface.
package main

import (
	"errors"
	"flag"
	"fmt"
	iofs "io/fs"
	"log"
	"os"

	"github.com/flintml/flint/autodiff"
	"github.com/flintml/flint/backend/cpu"
	"github.com/flintml/flint/datasets"
	"github.com/flintml/flint/nn"
	"github.com/flintml/flint/optim"
	"github.com/flintml/flint/train"
)

const version = "v0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("Flint %s\n", version)
	case "train":
		if err := runTrain(os.Args[2:]); err != nil {
			log.Fatalf("train: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Flint - Neural network training in Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  train      Train a classifier on MNIST or synthetic data")
	fmt.Println("  version    Show version")
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "Directory containing MNIST IDX files")
	useSynthetic := fs.Bool("synthetic", false, "Train on synthetic Gaussian blobs instead of MNIST")
	maxSamples := fs.Int("samples", 0, "Max samples to load (0 = all)")
	epochs := fs.Int("epochs", 10, "Number of training epochs")
	batchSize := fs.Int("batch", 32, "Batch size for training")
	lr := fs.Float64("lr", 0, "Learning rate (0 = optimizer default)")
	optimizerName := fs.String("optimizer", "sgd", "Optimizer: sgd, momentum, rmsprop or adam")
	dropout := fs.Float64("dropout", 0.5, "Dropout probability for the hidden layer (0 disables)")
	hidden := fs.Int("hidden", 128, "Hidden layer width")
	checkpoint := fs.String("checkpoint", "", "Path to save the best model (empty = no checkpointing)")
	patience := fs.Int("patience", 0, "Early stopping patience in epochs (0 disables)")
	seed := fs.Int64("seed", 1, "Shuffle RNG seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	backend := autodiff.New(cpu.New())
	logger := log.New(os.Stderr, "", log.LstdFlags)

	var trainSet, valSet *datasets.Dataset
	if *useSynthetic {
		logger.Println("generating synthetic Gaussian blobs")
		data := datasets.GaussianBlobs(datasets.BlobsConfig{
			NumSamples:  2000,
			NumFeatures: 16,
			NumClasses:  4,
			Seed:        uint64(*seed),
		})
		trainSet, valSet = data.Split(0.2)
	} else {
		logger.Printf("loading MNIST from %s", *dataDir)
		data, err := datasets.LoadMNIST(*dataDir, true, *maxSamples)
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				return fmt.Errorf("MNIST files not found in %s; download from http://yann.lecun.com/exdb/mnist/ or run with -synthetic", *dataDir)
			}
			return err
		}
		trainSet, valSet = data.Split(0.2)
	}
	logger.Printf("train: %d samples, val: %d samples", trainSet.NumSamples(), valSet.NumSamples())

	modules := []nn.Module{
		nn.NewLinear(trainSet.NumFeatures, *hidden, backend),
		nn.NewReLU(),
	}
	if *dropout > 0 {
		modules = append(modules, nn.NewDropout(float32(*dropout)))
	}
	modules = append(modules, nn.NewLinear(*hidden, trainSet.NumClasses, backend))
	model := nn.NewSequential(modules...)

	optimizer, err := buildOptimizer(*optimizerName, model.Parameters(), float32(*lr))
	if err != nil {
		return err
	}
	logger.Printf("optimizer: %s (lr=%g)", *optimizerName, optimizer.GetLR())

	criterion := nn.NewCrossEntropyLoss(backend)
	trainer := train.NewTrainer(model, criterion, optimizer, backend)

	opts := []train.FitOption{
		train.WithBatchSize(*batchSize),
		train.WithSeed(*seed),
		train.WithLogger(logger),
	}
	if *checkpoint != "" {
		opts = append(opts, train.WithCheckpointPath(*checkpoint))
	}
	if *patience > 0 {
		opts = append(opts, train.WithEarlyStopping(*patience, 0.0001))
	}

	result, err := trainer.Fit(trainSet, valSet, *epochs, opts...)
	if err != nil {
		return err
	}

	last := result.EpochsRun - 1
	fmt.Printf("trained %d epochs: val_loss=%.4f val_acc=%.2f%% (best epoch %d, val_loss=%.4f)\n",
		result.EpochsRun, result.ValLosses[last], result.ValAccuracies[last]*100,
		result.BestEpoch+1, result.BestValLoss)
	return nil
}

func buildOptimizer(name string, params []*nn.Parameter, lr float32) (optim.Optimizer, error) {
	switch name {
	case "sgd":
		return optim.NewSGD(params, optim.SGDConfig{LR: lr}), nil
	case "momentum":
		return optim.NewSGD(params, optim.SGDConfig{LR: lr, Momentum: 0.9}), nil
	case "rmsprop":
		return optim.NewRMSProp(params, optim.RMSPropConfig{LR: lr}), nil
	case "adam":
		return optim.NewAdam(params, optim.AdamConfig{LR: lr}), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q (want sgd, momentum, rmsprop or adam)", name)
	}
}
