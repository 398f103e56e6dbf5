// Copyright 2025 The Flint Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package datasets provides dataset loading and mini-batching.
//
// It includes a loader for the MNIST IDX format (plain or gzipped) and a
// synthetic Gaussian blob generator for experiments that should not depend
// on downloaded data.
package datasets

import (
	"github.com/flintml/flint/internal/datasets"
)

// Dataset holds a labeled set of flattened feature vectors.
type Dataset = datasets.Dataset

// Batch is a mini-batch of images and labels as backend tensors.
type Batch = datasets.Batch

// BlobsConfig configures GaussianBlobs generation.
type BlobsConfig = datasets.BlobsConfig

// LoadMNIST loads the MNIST dataset from IDX files in dataDir, normalized
// to [0, 1]. Pass train=false for the 10k test set. maxSamples limits the
// number of samples loaded; 0 loads everything.
func LoadMNIST(dataDir string, train bool, maxSamples int) (*Dataset, error) {
	return datasets.LoadMNIST(dataDir, train, maxSamples)
}

// GaussianBlobs generates an isotropic Gaussian blob classification dataset.
func GaussianBlobs(config BlobsConfig) *Dataset {
	return datasets.GaussianBlobs(config)
}
