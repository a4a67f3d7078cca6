package main

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/urfave/cli/v3"

	"github.com/nxtools/bntxtools/pkg/archive"
	"github.com/nxtools/bntxtools/pkg/bntx"
)

func createCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Build a BNTX container from a PNG image",
		ArgsUsage: "<input.png> <output.bntx>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Texture name (default: output filename without extension)",
			},
			&cli.StringFlag{
				Name:  "resize",
				Usage: "Resample to WxH before packing (e.g. 256x256)",
			},
			&cli.BoolFlag{
				Name:    "compressed",
				Aliases: []string{"z"},
				Usage:   "Wrap the output in a zstd envelope",
			},
			&cli.IntFlag{
				Name:  "level",
				Usage: "zstd compression level for -z",
				Value: int(archive.DefaultCompressionLevel),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("expected input and output paths")
			}
			inPath, outPath := cmd.Args().Get(0), cmd.Args().Get(1)

			name := cmd.String("name")
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath))
			}

			level := cmd.Int("level")
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.CompressionLevel != nil && !cmd.IsSet("level") {
				level = *cfg.CompressionLevel
			}

			img, err := readPNG(inPath)
			if err != nil {
				return err
			}

			if spec := cmd.String("resize"); spec != "" {
				w, h, err := parseSize(spec)
				if err != nil {
					return err
				}
				fmt.Printf("Resizing %dx%d -> %dx%d\n", img.Bounds().Dx(), img.Bounds().Dy(), w, h)
				img = transform.Resize(img, w, h, transform.Linear)
			}

			rgba := toRGBA(img)
			bounds := rgba.Bounds()
			fmt.Printf("Packing %q: %dx%d\n", name, bounds.Dx(), bounds.Dy())

			c, err := bntx.FromPixels(uint32(bounds.Dx()), uint32(bounds.Dy()), rgba.Pix, name)
			if err != nil {
				return fmt.Errorf("build container: %w", err)
			}

			data, err := bntx.Encode(c)
			if err != nil {
				return fmt.Errorf("encode container: %w", err)
			}

			if cmd.Bool("compressed") {
				if data, err = archive.Compress(data, archive.WithCompressionLevel(level)); err != nil {
					return fmt.Errorf("compress output: %w", err)
				}
			}

			if err := os.WriteFile(outPath, data, 0644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			fmt.Printf("Wrote %s (%d bytes)\n", outPath, len(data))
			return nil
		},
	}
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return img, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

func parseSize(spec string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(spec), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q, expected WxH", spec)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q", spec)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q", spec)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q must be positive", spec)
	}
	return w, h, nil
}
