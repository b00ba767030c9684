// imgtool inspects and converts the float image container written by
// covrender.
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"covtrace/rgbimage"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/prototext"
)

var cmdRoot = &cobra.Command{
	Use: "imgtool",
}

var cmdHeader = &cobra.Command{
	Use:   "header <container>",
	Short: "Print the header of an image container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("while opening container: %w", err)
		}
		defer f.Close()

		hdr, err := rgbimage.ReadHeader(f)
		if err != nil {
			return fmt.Errorf("while reading header: %w", err)
		}

		fmt.Fprint(cmd.OutOrStdout(), prototext.MarshalOptions{Multiline: true}.Format(hdr))
		return nil
	},
}

var (
	toPNGGamma    float64
	toPNGExposure float64
)

var cmdToPNG = &cobra.Command{
	Use:   "to-png <container> <png>",
	Short: "Tone map an image container to an 8-bit PNG",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !(toPNGGamma > 0) {
			return fmt.Errorf("gamma must be positive, got %v", toPNGGamma)
		}

		im, err := rgbimage.ReadRGBImageFromFile(args[0])
		if err != nil {
			return fmt.Errorf("while reading container: %w", err)
		}

		out, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("while creating output file: %w", err)
		}
		defer out.Close()

		if err := png.Encode(out, toneMap(im, toPNGExposure, toPNGGamma)); err != nil {
			return fmt.Errorf("while encoding PNG: %w", err)
		}

		if err := out.Close(); err != nil {
			return fmt.Errorf("while closing output file: %w", err)
		}
		return nil
	},
}

func init() {
	cmdToPNG.Flags().Float64Var(&toPNGGamma, "gamma", 2.2, "Display gamma.")
	cmdToPNG.Flags().Float64Var(&toPNGExposure, "exposure", 1.0, "Linear scale applied before clamping.")
}

// toByte clamps v to [0, 1] and gamma-encodes it.
func toByte(v, gamma float64) uint8 {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(math.Pow(v, 1/gamma)*255 + 0.5)
}

func toneMap(im *rgbimage.RGBImage, exposure, gamma float64) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, im.ColSize, im.RowSize))
	for r := 0; r < im.RowSize; r++ {
		for c := 0; c < im.ColSize; c++ {
			px := im.At(r, c)
			out.SetNRGBA(c, r, color.NRGBA{
				R: toByte(px[0]*exposure, gamma),
				G: toByte(px[1]*exposure, gamma),
				B: toByte(px[2]*exposure, gamma),
				A: 255,
			})
		}
	}
	return out
}

func main() {
	glog.CopyStandardLogTo("INFO")
	defer glog.Flush()

	cmdRoot.AddCommand(cmdHeader, cmdToPNG)

	if err := cmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}
