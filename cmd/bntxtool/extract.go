package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/nxtools/bntxtools/pkg/archive"
	"github.com/nxtools/bntxtools/pkg/bntx"
)

func extractCmd() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract the first texture of a BNTX container to PNG",
		ArgsUsage: "<input.bntx> <output.png>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "compressed",
				Aliases: []string{"z"},
				Usage:   "Treat the input as a zstd envelope (auto-detected by magic)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("expected input and output paths")
			}
			inPath, outPath := cmd.Args().Get(0), cmd.Args().Get(1)

			data, err := readContainerBytes(inPath, cmd.Bool("compressed"))
			if err != nil {
				return err
			}

			c, err := bntx.Decode(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", inPath, err)
			}

			tex := c.Textures[0]
			fmt.Printf("Container %q: %d texture(s)\n", c.Name, len(c.Textures))
			fmt.Printf("Extracting %q: %dx%d %s\n", tex.Name, tex.Width, tex.Height, tex.Format)

			w, h, rgba, err := c.ToPixels()
			if err != nil {
				return fmt.Errorf("convert %s: %w", inPath, err)
			}

			img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
			img.Pix = rgba

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer out.Close()

			if err := png.Encode(out, img); err != nil {
				return fmt.Errorf("encode png: %w", err)
			}

			fmt.Printf("Wrote %s\n", outPath)
			return nil
		},
	}
}

// readContainerBytes loads a container file, unwrapping the zstd envelope
// when the flag is set or the magic matches.
func readContainerBytes(path string, compressed bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if compressed || archive.IsEnvelope(data) {
		if data, err = archive.Decompress(data); err != nil {
			return nil, fmt.Errorf("decompress input: %w", err)
		}
	}
	return data, nil
}
