package dataset

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	imagesMagic = 2051 // 0x00000803
	labelsMagic = 2049 // 0x00000801

	// maxIDXSamples bounds the sample count accepted from a file header.
	maxIDXSamples = 1 << 20
)

// sampleCount returns how many samples to read given the header count and
// an optional limit (0 = no limit).
func sampleCount(headerCount uint32, maxSamples int) (int, error) {
	n := uint64(headerCount)
	if maxSamples > 0 && n > uint64(maxSamples) {
		n = uint64(maxSamples)
	}
	if n > maxIDXSamples {
		return 0, fmt.Errorf("header claims %d samples, limit is %d: %w", headerCount, maxIDXSamples, ErrInvalidFormat)
	}
	return int(n), nil
}

// ReadIDXImages reads an image file in IDX format.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255)
//
// At most maxSamples images are read (0 = all).
func ReadIDXImages(r io.Reader, maxSamples int) ([][]byte, error) {
	var header struct {
		Magic, Count, Rows, Cols uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if header.Magic != imagesMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d: %w", header.Magic, imagesMagic, ErrInvalidFormat)
	}
	if header.Rows != ImageRows || header.Cols != ImageCols {
		return nil, fmt.Errorf("image size %dx%d, want %dx%d: %w", header.Rows, header.Cols, ImageRows, ImageCols, ErrInvalidFormat)
	}

	count, err := sampleCount(header.Count, maxSamples)
	if err != nil {
		return nil, err
	}

	var images [][]byte
	for i := 0; i < count; i++ {
		img := make([]byte, ImageSize)
		if _, err := io.ReadFull(r, img); err != nil {
			return nil, fmt.Errorf("failed to read image %d: %w", i, err)
		}
		images = append(images, img)
	}
	return images, nil
}

// ReadIDXLabels reads a label file in IDX format.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
//
// At most maxSamples labels are read (0 = all).
func ReadIDXLabels(r io.Reader, maxSamples int) ([]byte, error) {
	var header struct {
		Magic, Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read label header: %w", err)
	}
	if header.Magic != labelsMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d: %w", header.Magic, labelsMagic, ErrInvalidFormat)
	}

	count, err := sampleCount(header.Count, maxSamples)
	if err != nil {
		return nil, err
	}

	var labels bytes.Buffer
	if _, err := io.CopyN(&labels, r, int64(count)); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return labels.Bytes(), nil
}

// LoadIDX loads MNIST data from the official IDX files in dir.
//
// Expected files (each optionally gzip-compressed with a .gz suffix):
//   - train-images-idx3-ubyte, train-labels-idx1-ubyte when train is true
//   - t10k-images-idx3-ubyte, t10k-labels-idx1-ubyte otherwise
//
// maxSamples limits the number of samples loaded (0 = load all). Pixels are
// scaled to [0, 1].
func LoadIDX(dir string, train bool, maxSamples int) (*Dataset, error) {
	prefix := "train"
	if !train {
		prefix = "t10k"
	}

	var imagesRaw [][]byte
	err := withIDXFile(filepath.Join(dir, prefix+"-images-idx3-ubyte"), func(r io.Reader) (err error) {
		imagesRaw, err = ReadIDXImages(r, maxSamples)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}

	var labelsRaw []byte
	err = withIDXFile(filepath.Join(dir, prefix+"-labels-idx1-ubyte"), func(r io.Reader) (err error) {
		labelsRaw, err = ReadIDXLabels(r, maxSamples)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}

	return fromIDX(imagesRaw, labelsRaw, maxSamples)
}

func fromIDX(imagesRaw [][]byte, labelsRaw []byte, maxSamples int) (*Dataset, error) {
	if len(imagesRaw) != len(labelsRaw) {
		return nil, fmt.Errorf("image count (%d) != label count (%d): %w", len(imagesRaw), len(labelsRaw), ErrInvalidFormat)
	}

	numSamples := len(imagesRaw)
	if maxSamples > 0 && numSamples > maxSamples {
		numSamples = maxSamples
	}

	data := &Dataset{
		Images: make([][]float64, numSamples),
		Labels: make([]int, numSamples),
	}
	for i := 0; i < numSamples; i++ {
		img := make([]float64, ImageSize)
		for j, px := range imagesRaw[i] {
			img[j] = float64(px) / 255.0
		}
		data.Images[i] = img
		data.Labels[i] = int(labelsRaw[i])
	}

	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

// withIDXFile opens path, falling back to path+".gz", and hands fn a reader
// over the decompressed bytes.
func withIDXFile(path string, fn func(io.Reader) error) error {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		file, err = os.Open(path + ".gz")
	}
	if err != nil {
		return err
	}
	defer file.Close()

	r := bufio.NewReader(file)
	magic, err := r.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("gzip %s: %w", file.Name(), err)
		}
		defer gz.Close()
		return fn(gz)
	}
	return fn(r)
}
