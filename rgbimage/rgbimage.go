package rgbimage

import (
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"covtrace/vmath/vec3"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// RGBImage is a float RGB buffer stored top row first.
type RGBImage struct {
	RowSize, ColSize int
	Pixels           []float32
}

func New(rowSize, colSize int) *RGBImage {
	im := &RGBImage{}
	im.Resize(rowSize, colSize)
	return im
}

func (s *RGBImage) Resize(rowSize, colSize int) {
	s.RowSize = rowSize
	s.ColSize = colSize
	s.Pixels = make([]float32, rowSize*colSize*3)
}

func (s *RGBImage) Set(r, c int, color vec3.T) {
	idx := (r*s.ColSize + c) * 3
	s.Pixels[idx+0] = float32(color[0])
	s.Pixels[idx+1] = float32(color[1])
	s.Pixels[idx+2] = float32(color[2])
}

func (s *RGBImage) At(r, c int) vec3.T {
	idx := (r*s.ColSize + c) * 3
	return vec3.T{
		float64(s.Pixels[idx+0]),
		float64(s.Pixels[idx+1]),
		float64(s.Pixels[idx+2]),
	}
}

// Row returns the slice backing row r.  Writers that own disjoint rows may
// fill them concurrently.
func (s *RGBImage) Row(r int) []float32 {
	return s.Pixels[r*s.ColSize*3 : (r+1)*s.ColSize*3]
}

// AllFinite reports whether no channel is NaN or infinite.
func (s *RGBImage) AllFinite() bool {
	for _, v := range s.Pixels {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}

const dataLayoutVersion = 1

// Limits on what a container may ask the reader to allocate.
const (
	maxHeaderLength = 1 << 20
	maxPixels       = 1 << 28
)

// Header describes the container's layout.
func Header(im *RGBImage) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"rowSize":           im.RowSize,
		"colSize":           im.ColSize,
		"channels":          3,
		"dataLayoutVersion": dataLayoutVersion,
	})
}

func headerInt(hdr *structpb.Struct, name string) (int, error) {
	v, ok := hdr.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("header is missing field %q", name)
	}
	n := v.GetNumberValue()
	if n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return 0, fmt.Errorf("header field %q has bad value %v", name, n)
	}
	return int(n), nil
}

// ReadHeader reads just the header of a container.
func ReadHeader(in io.Reader) (*structpb.Struct, error) {
	var headerLength uint64
	if err := binary.Read(in, binary.LittleEndian, &headerLength); err != nil {
		return nil, fmt.Errorf("while reading header length: %w", err)
	}

	if headerLength > maxHeaderLength {
		return nil, fmt.Errorf("header length %d exceeds limit %d", headerLength, maxHeaderLength)
	}

	headerBytes := make([]byte, int(headerLength))
	if _, err := io.ReadFull(in, headerBytes); err != nil {
		return nil, fmt.Errorf("while reading header bytes: %w", err)
	}

	hdr := &structpb.Struct{}
	if err := proto.Unmarshal(headerBytes, hdr); err != nil {
		return nil, fmt.Errorf("while unmarshaling header: %w", err)
	}
	return hdr, nil
}

func ReadRGBImage(in io.Reader) (*RGBImage, error) {
	hdr, err := ReadHeader(in)
	if err != nil {
		return nil, err
	}

	version, err := headerInt(hdr, "dataLayoutVersion")
	if err != nil {
		return nil, err
	}
	if version != dataLayoutVersion {
		return nil, fmt.Errorf("bad data layout version: %v", version)
	}

	channels, err := headerInt(hdr, "channels")
	if err != nil {
		return nil, err
	}
	if channels != 3 {
		return nil, fmt.Errorf("bad channel count: %v", channels)
	}

	rows, err := headerInt(hdr, "rowSize")
	if err != nil {
		return nil, err
	}
	cols, err := headerInt(hdr, "colSize")
	if err != nil {
		return nil, err
	}

	if int64(rows)*int64(cols) > maxPixels {
		return nil, fmt.Errorf("image of %dx%d pixels exceeds limit %d", cols, rows, maxPixels)
	}

	im := New(rows, cols)

	zipReader, err := zlib.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("while opening zip reader: %w", err)
	}
	defer zipReader.Close()

	if err := binary.Read(zipReader, binary.LittleEndian, im.Pixels); err != nil {
		return nil, fmt.Errorf("while reading pixels: %w", err)
	}

	return im, nil
}

func ReadRGBImageFromFile(name string) (*RGBImage, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("while opening file: %w", err)
	}
	defer f.Close()

	return ReadRGBImage(f)
}

func WriteRGBImage(im *RGBImage, w io.Writer) error {
	hdr, err := Header(im)
	if err != nil {
		return fmt.Errorf("while building header: %w", err)
	}

	hdrBytes, err := proto.MarshalOptions{Deterministic: true}.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("while marshaling header: %w", err)
	}

	headerLengthBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(headerLengthBytes, uint64(len(hdrBytes)))
	if _, err := w.Write(headerLengthBytes); err != nil {
		return fmt.Errorf("while writing header length: %w", err)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return fmt.Errorf("while writing header: %w", err)
	}

	zipWriter := zlib.NewWriter(w)

	if err := binary.Write(zipWriter, binary.LittleEndian, im.Pixels); err != nil {
		return fmt.Errorf("while writing pixels: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("while closing zip writer: %w", err)
	}

	return nil
}

// Format selects an on-disk encoding.
type Format int

const (
	FormatContainer Format = iota
	FormatEXR
)

// FormatForPath picks the encoding from a file name's extension.
func FormatForPath(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".exr") {
		return FormatEXR
	}
	return FormatContainer
}

// Encode writes im to w in the given format.
func Encode(im *RGBImage, w io.Writer, format Format) error {
	switch format {
	case FormatEXR:
		return WriteEXR(im, w)
	default:
		return WriteRGBImage(im, w)
	}
}

// WriteFile writes im to name, choosing the format from the extension.  Any
// failure is returned as an *Error.
func WriteFile(im *RGBImage, name string) (err error) {
	out, err := os.Create(name)
	if err != nil {
		return NewError(name, "create", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = NewError(name, "close", closeErr)
		}
	}()

	if err := Encode(im, out, FormatForPath(name)); err != nil {
		return NewError(name, "encode", err)
	}
	return nil
}
