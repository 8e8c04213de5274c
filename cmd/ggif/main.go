// Command ggif inspects GIF files and extracts their frames.
//
// Usage:
//
//	ggif info <input.gif>                    Display GIF metadata
//	ggif dec [options] <input.gif>          Extract frames to PNG/JPEG/WebP
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/webp"

	"github.com/deepteams/gif"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "info":
		err = runInfo(os.Args[2:])
	case "dec":
		err = runDec(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "ggif: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "ggif: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  ggif info <input.gif>              Display GIF metadata
  ggif dec [options] <input.gif>    Extract frames to PNG, JPEG, or WebP

Use "-" as input to read from stdin.

Run "ggif dec -h" for extraction options.
`)
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned wrapped so that Close is a no-op.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// --- info ---

func runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: ggif info <input.gif>")
	}
	inputPath := args[0]

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	feat, err := gif.GetFeatures(in)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	name := inputPath
	if inputPath == "-" {
		name = "<stdin>"
	}

	fmt.Printf("File:       %s\n", name)
	fmt.Printf("Version:    GIF%s\n", feat.Version)
	fmt.Printf("Dimensions: %d x %d\n", feat.Width, feat.Height)
	fmt.Printf("Palette:    %d entries (background index %d)\n", feat.GlobalPaletteSize, feat.BackgroundIndex)
	fmt.Printf("Animation:  %v\n", feat.HasAnimation)
	if feat.HasAnimation {
		fmt.Printf("Frames:     %d\n", feat.FrameCount)
		loop := "infinite"
		if feat.LoopCount >= 0 {
			loop = fmt.Sprintf("%d", feat.LoopCount)
		}
		fmt.Printf("Loop count: %s\n", loop)
	}

	if inputPath != "-" {
		if fi, err := os.Stat(inputPath); err == nil {
			fmt.Printf("File size:  %d bytes\n", fi.Size())
		}
	}

	return nil
}

// --- dec ---

func runDec(args []string) error {
	fs := flag.NewFlagSet("dec", flag.ContinueOnError)
	output := fs.String("o", "", `output path (default: <input>.<fmt>, "-" for stdout)`)
	fmtFlag := fs.String("fmt", "", "output format: png, jpeg, webp (auto-detect from extension if omitted)")
	frameIdx := fs.Int("frame", 0, "frame index to extract")
	all := fs.Bool("all", false, "extract every frame (output paths get a -NNN suffix)")
	quality := fs.Int("q", 90, "JPEG quality 1-100")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("dec: missing input file\nUsage: ggif dec [options] <input.gif>")
	}
	inputPath := fs.Arg(0)

	in, err := openInput(inputPath)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("dec: reading input: %w", err)
	}

	anim, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}

	outFmt := detectOutputFormat(*fmtFlag, *output)

	if *all {
		return writeAllFrames(anim, inputPath, *output, outFmt, *quality)
	}

	if *frameIdx < 0 || *frameIdx >= len(anim.Frames) {
		return fmt.Errorf("dec: frame %d out of range (file has %d)", *frameIdx, len(anim.Frames))
	}
	outPath := *output
	if outPath == "" {
		outPath = defaultOutputPath(inputPath, outFmt, -1)
	}
	return writeFrame(anim.Frames[*frameIdx], outPath, outFmt, *quality, inputPath)
}

// detectOutputFormat returns the lower-cased format flag when it is set;
// otherwise "jpeg" or "webp" from the output extension, defaulting to "png".
func detectOutputFormat(fmtFlag, outputPath string) string {
	if fmtFlag != "" {
		return strings.ToLower(fmtFlag)
	}
	if outputPath != "" && outputPath != "-" {
		switch strings.ToLower(filepath.Ext(outputPath)) {
		case ".jpg", ".jpeg":
			return "jpeg"
		case ".webp":
			return "webp"
		}
	}
	return "png"
}

func extFor(format string) string {
	switch format {
	case "jpeg", "jpg":
		return ".jpg"
	case "webp":
		return ".webp"
	default:
		return ".png"
	}
}

// defaultOutputPath derives an output name from the input. idx >= 0 adds a
// frame-number suffix.
func defaultOutputPath(inputPath, format string, idx int) string {
	base := "output"
	if inputPath != "-" {
		base = strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	}
	if idx >= 0 {
		base = fmt.Sprintf("%s-%03d", base, idx)
	}
	return base + extFor(format)
}

func writeAllFrames(anim *gif.Animation, inputPath, outputPath, format string, quality int) error {
	if outputPath == "-" {
		return fmt.Errorf("dec: -all cannot write to stdout")
	}
	for i, frame := range anim.Frames {
		path := defaultOutputPath(inputPath, format, i)
		if outputPath != "" {
			ext := filepath.Ext(outputPath)
			path = fmt.Sprintf("%s-%03d%s", strings.TrimSuffix(outputPath, ext), i, ext)
		}
		if err := writeFrame(frame, path, format, quality, inputPath); err != nil {
			return err
		}
	}
	return nil
}

func writeFrame(img image.Image, outputPath, format string, quality int, inputPath string) error {
	if outputPath == "-" {
		return encodeImage(os.Stdout, img, format, quality)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := encodeImage(out, img, format, quality); err != nil {
		out.Close()
		os.Remove(outputPath)
		return fmt.Errorf("dec: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return err
	}

	fmt.Fprintf(os.Stderr, "Decoded %s → %s\n", inputPath, outputPath)
	return nil
}

// encodeImage writes img in the specified format to w.
func encodeImage(w io.Writer, img image.Image, format string, quality int) error {
	switch format {
	case "jpeg", "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case "webp":
		return webp.Encode(w, img)
	default:
		return png.Encode(w, img)
	}
}
