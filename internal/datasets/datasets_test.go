package datasets

import (
	"compress/gzip"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flintml/flint/internal/backend/cpu"
)

// writeIDX writes a tiny IDX image/label pair into dir, optionally gzipped.
func writeIDX(t *testing.T, dir string, compress bool) {
	t.Helper()

	const (
		numSamples = 5
		rows       = 2
		cols       = 2
	)

	var images []byte
	images = binary.BigEndian.AppendUint32(images, idxImagesMagic)
	images = binary.BigEndian.AppendUint32(images, numSamples)
	images = binary.BigEndian.AppendUint32(images, rows)
	images = binary.BigEndian.AppendUint32(images, cols)
	for i := 0; i < numSamples*rows*cols; i++ {
		images = append(images, byte(i*10))
	}

	var labels []byte
	labels = binary.BigEndian.AppendUint32(labels, idxLabelsMagic)
	labels = binary.BigEndian.AppendUint32(labels, numSamples)
	for i := 0; i < numSamples; i++ {
		labels = append(labels, byte(i%10))
	}

	write := func(name string, data []byte) {
		path := filepath.Join(dir, name)
		if compress {
			file, err := os.Create(path + ".gz")
			require.NoError(t, err)
			gz := gzip.NewWriter(file)
			_, err = gz.Write(data)
			require.NoError(t, err)
			require.NoError(t, gz.Close())
			require.NoError(t, file.Close())
			return
		}
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}

	write("train-images-idx3-ubyte", images)
	write("train-labels-idx1-ubyte", labels)
}

func TestLoadMNIST_Plain(t *testing.T) {
	dir := t.TempDir()
	writeIDX(t, dir, false)

	data, err := LoadMNIST(dir, true, 0)
	require.NoError(t, err)

	assert.Equal(t, 5, data.NumSamples())
	assert.Equal(t, 4, data.NumFeatures)
	assert.Equal(t, 10, data.NumClasses)

	// Pixels are normalized to [0, 1]: first image is bytes 0, 10, 20, 30.
	assert.InDelta(t, 0.0, data.Images[0][0], 1e-6)
	assert.InDelta(t, 10.0/255.0, data.Images[0][1], 1e-6)
	assert.Equal(t, int32(2), data.Labels[2])
}

func TestLoadMNIST_Gzipped(t *testing.T) {
	dir := t.TempDir()
	writeIDX(t, dir, true)

	data, err := LoadMNIST(dir, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, data.NumSamples())
}

func TestLoadMNIST_MaxSamples(t *testing.T) {
	dir := t.TempDir()
	writeIDX(t, dir, false)

	data, err := LoadMNIST(dir, true, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, data.NumSamples())
}

func TestLoadMNIST_MissingFiles(t *testing.T) {
	_, err := LoadMNIST(t.TempDir(), true, 0)
	assert.Error(t, err)
}

func TestLoadMNIST_BadMagic(t *testing.T) {
	dir := t.TempDir()
	bad := binary.BigEndian.AppendUint32(nil, 1234)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train-images-idx3-ubyte"), bad, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "train-labels-idx1-ubyte"), bad, 0o644))

	_, err := LoadMNIST(dir, true, 0)
	assert.ErrorContains(t, err, "invalid magic number")
}

func TestDataset_Split(t *testing.T) {
	data := GaussianBlobs(BlobsConfig{NumSamples: 100, Seed: 7})
	train, val := data.Split(0.2)

	assert.Equal(t, 80, train.NumSamples())
	assert.Equal(t, 20, val.NumSamples())
	assert.Equal(t, data.NumFeatures, train.NumFeatures)
	assert.Equal(t, data.NumClasses, val.NumClasses)
}

func TestDataset_Batches(t *testing.T) {
	backend := cpu.New()
	data := GaussianBlobs(BlobsConfig{NumSamples: 10, NumFeatures: 3, NumClasses: 2, Seed: 7})

	batches, err := data.Batches(4, false, nil, backend)
	require.NoError(t, err)
	require.Len(t, batches, 3)

	assert.Equal(t, 4, batches[0].Size)
	assert.Equal(t, 4, batches[1].Size)
	assert.Equal(t, 2, batches[2].Size, "last batch holds the remainder")

	// Without shuffle, batch contents follow dataset order.
	first := batches[0].Images.Data()
	assert.InDeltaSlice(t, data.Images[0], first[:3], 1e-6)
	assert.Equal(t, data.Labels[0], batches[0].Labels.Data()[0])
}

func TestDataset_BatchesShuffleDeterministic(t *testing.T) {
	backend := cpu.New()
	data := GaussianBlobs(BlobsConfig{NumSamples: 20, NumFeatures: 2, NumClasses: 2, Seed: 7})

	a, err := data.Batches(5, true, rand.New(rand.NewSource(42)), backend)
	require.NoError(t, err)
	b, err := data.Batches(5, true, rand.New(rand.NewSource(42)), backend)
	require.NoError(t, err)

	assert.Equal(t, a[0].Labels.Data(), b[0].Labels.Data(), "same seed should give same order")
}

func TestDataset_BatchesInvalidSize(t *testing.T) {
	backend := cpu.New()
	data := GaussianBlobs(BlobsConfig{NumSamples: 10, Seed: 7})

	_, err := data.Batches(0, false, nil, backend)
	assert.Error(t, err)
}

func TestGaussianBlobs_Defaults(t *testing.T) {
	data := GaussianBlobs(BlobsConfig{Seed: 1})

	assert.Equal(t, 1000, data.NumSamples())
	assert.Equal(t, 2, data.NumFeatures)
	assert.Equal(t, 3, data.NumClasses)

	// Round-robin class assignment keeps counts balanced.
	counts := make(map[int32]int)
	for _, label := range data.Labels {
		counts[label]++
	}
	for class := int32(0); class < 3; class++ {
		assert.InDelta(t, 333, counts[class], 1, "class %d count", class)
	}
}

func TestGaussianBlobs_Reproducible(t *testing.T) {
	a := GaussianBlobs(BlobsConfig{NumSamples: 50, Seed: 9})
	b := GaussianBlobs(BlobsConfig{NumSamples: 50, Seed: 9})
	assert.Equal(t, a.Images[0], b.Images[0])
	assert.Equal(t, a.Labels, b.Labels)
}
