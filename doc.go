// Package gif provides a streaming, allocation-free decoder for the GIF87a
// and GIF89a image formats, designed for embedded use: the caller supplies
// the complete file as a read-only byte slice, a scratch buffer whose size
// is a pure function of the configured limits, and the RGB output canvas.
//
// The package supports:
//   - Single-image and animated GIFs (frame delays, Netscape looping)
//   - Global and per-frame local colour tables
//   - Transparency and the restore-to-background disposal policy
//   - Four-pass interlacing
//   - Two interchangeable LZW dictionary representations (Safe and Turbo)
//
// Streaming usage with caller-owned buffers:
//
//	limits := gif.DefaultLimits()
//	scratch := make([]byte, limits.ScratchSize())
//	var d gif.Decoder
//	if err := d.Init(data, scratch, limits); err != nil { ... }
//	w, h := d.Info()
//	frame := make([]byte, w*h*3)
//	for {
//		delay, err := d.NextFrame(frame)
//		if err == io.EOF {
//			break
//		}
//		...
//	}
//
// Convenience usage through the standard image interfaces:
//
//	img, err := gif.Decode(reader)
package gif
