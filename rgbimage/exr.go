package rgbimage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// EXR constants for a single-part scanline file.
const (
	exrMagic         = 20000630
	exrVersion       = 2
	exrPixelFloat    = 2
	exrNoCompression = 0
	exrIncreasingY   = 0
)

// exrChannels are written in the alphabetical order the format requires,
// paired with their offset in an RGB triple.
var exrChannels = []struct {
	name   string
	offset int
}{
	{"B", 2},
	{"G", 1},
	{"R", 0},
}

type exrHeader struct {
	bytes.Buffer
}

func (h *exrHeader) attribute(name, typ string, value []byte) {
	h.WriteString(name)
	h.WriteByte(0)
	h.WriteString(typ)
	h.WriteByte(0)
	binary.Write(&h.Buffer, binary.LittleEndian, int32(len(value)))
	h.Write(value)
}

func le(values ...interface{}) []byte {
	var b bytes.Buffer
	for _, v := range values {
		binary.Write(&b, binary.LittleEndian, v)
	}
	return b.Bytes()
}

// WriteEXR writes im as an uncompressed OpenEXR file with 32-bit float R, G
// and B channels.
func WriteEXR(im *RGBImage, w io.Writer) error {
	if im.RowSize == 0 || im.ColSize == 0 {
		return fmt.Errorf("cannot write an empty %dx%d image", im.ColSize, im.RowSize)
	}

	var chlist bytes.Buffer
	for _, ch := range exrChannels {
		chlist.WriteString(ch.name)
		chlist.WriteByte(0)
		chlist.Write(le(int32(exrPixelFloat), uint8(0), [3]uint8{}, int32(1), int32(1)))
	}
	chlist.WriteByte(0)

	window := le(int32(0), int32(0), int32(im.ColSize-1), int32(im.RowSize-1))

	hdr := &exrHeader{}
	hdr.Write(le(int32(exrMagic), int32(exrVersion)))
	hdr.attribute("channels", "chlist", chlist.Bytes())
	hdr.attribute("compression", "compression", []byte{exrNoCompression})
	hdr.attribute("dataWindow", "box2i", window)
	hdr.attribute("displayWindow", "box2i", window)
	hdr.attribute("lineOrder", "lineOrder", []byte{exrIncreasingY})
	hdr.attribute("pixelAspectRatio", "float", le(float32(1)))
	hdr.attribute("screenWindowCenter", "v2f", le(float32(0), float32(0)))
	hdr.attribute("screenWindowWidth", "float", le(float32(1)))
	hdr.WriteByte(0)

	lineBytes := im.ColSize * len(exrChannels) * 4
	chunkBytes := 8 + lineBytes

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(hdr.Bytes()); err != nil {
		return fmt.Errorf("while writing EXR header: %w", err)
	}

	// One chunk per scanline; the offset table points at each.
	firstChunk := uint64(hdr.Len() + 8*im.RowSize)
	offsets := make([]uint64, im.RowSize)
	for y := range offsets {
		offsets[y] = firstChunk + uint64(y*chunkBytes)
	}
	if err := binary.Write(bw, binary.LittleEndian, offsets); err != nil {
		return fmt.Errorf("while writing EXR offset table: %w", err)
	}

	line := make([]byte, chunkBytes)
	for y := 0; y < im.RowSize; y++ {
		binary.LittleEndian.PutUint32(line[0:4], uint32(int32(y)))
		binary.LittleEndian.PutUint32(line[4:8], uint32(lineBytes))

		row := im.Row(y)
		pos := 8
		for _, ch := range exrChannels {
			for x := 0; x < im.ColSize; x++ {
				binary.LittleEndian.PutUint32(line[pos:pos+4], math.Float32bits(row[x*3+ch.offset]))
				pos += 4
			}
		}

		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("while writing EXR scanline %d: %w", y, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("while flushing EXR writer: %w", err)
	}
	return nil
}
