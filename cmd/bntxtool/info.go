package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/nxtools/bntxtools/pkg/bntx"
	"github.com/nxtools/bntxtools/pkg/swizzle"
)

// containerInfo is the machine-readable view emitted by -json.
type containerInfo struct {
	Name         string        `json:"name"`
	Version      string        `json:"version"`
	Revision     uint16        `json:"revision"`
	ByteOrder    string        `json:"byte_order"`
	Strings      []string      `json:"strings"`
	RelocSecs    int           `json:"relocation_sections"`
	RelocEntries int           `json:"relocation_entries"`
	Textures     []textureInfo `json:"textures"`
}

type textureInfo struct {
	Name            string `json:"name"`
	Width           uint32 `json:"width"`
	Height          uint32 `json:"height"`
	Depth           uint32 `json:"depth"`
	Format          string `json:"format"`
	FormatCode      uint32 `json:"format_code"`
	TileMode        string `json:"tile_mode"`
	BlockHeightLog2 uint32 `json:"block_height_log2"`
	MipCount        uint16 `json:"mip_count"`
	ArrayLength     uint32 `json:"array_length"`
	ImageSize       uint32 `json:"image_size"`
	Alignment       uint32 `json:"alignment"`
}

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Show BNTX container metadata",
		ArgsUsage: "<input.bntx>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit machine-readable JSON",
			},
			&cli.BoolFlag{
				Name:    "compressed",
				Aliases: []string{"z"},
				Usage:   "Treat the input as a zstd envelope (auto-detected by magic)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("expected an input path")
			}
			inPath := cmd.Args().Get(0)

			data, err := readContainerBytes(inPath, cmd.Bool("compressed"))
			if err != nil {
				return err
			}
			c, err := bntx.Decode(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", inPath, err)
			}

			if cmd.Bool("json") {
				out, err := json.MarshalIndent(buildInfo(c), "", "  ")
				if err != nil {
					return fmt.Errorf("marshal info: %w", err)
				}
				fmt.Println(string(out))
				return nil
			}

			printInfo(inPath, c)
			return nil
		},
	}
}

func buildInfo(c *bntx.Container) containerInfo {
	info := containerInfo{
		Name:         c.Name,
		Version:      fmt.Sprintf("%d.%d", c.VersionMajor, c.VersionMinor),
		Revision:     c.Revision,
		ByteOrder:    byteOrderName(c),
		Strings:      c.StringPool.Strings,
		RelocSecs:    len(c.Reloc.Sections),
		RelocEntries: len(c.Reloc.Entries),
	}
	for _, tex := range c.Textures {
		info.Textures = append(info.Textures, textureInfo{
			Name:            tex.Name,
			Width:           tex.Width,
			Height:          tex.Height,
			Depth:           tex.Depth,
			Format:          tex.Format.String(),
			FormatCode:      uint32(tex.Format),
			TileMode:        tileModeName(tex.TileMode),
			BlockHeightLog2: tex.BlockHeightLog2,
			MipCount:        tex.MipCount,
			ArrayLength:     tex.ArrayLength,
			ImageSize:       tex.ImageSize,
			Alignment:       tex.Alignment,
		})
	}
	return info
}

func printInfo(path string, c *bntx.Container) {
	fmt.Printf("File: %s\n", path)
	fmt.Printf("Container %q | v%d.%d rev %#x | %s\n",
		c.Name, c.VersionMajor, c.VersionMinor, c.Revision, byteOrderName(c))
	fmt.Printf("Strings: %d | relocation: %d sections, %d entries | dictionary: %d bytes\n",
		len(c.StringPool.Strings), len(c.Reloc.Sections), len(c.Reloc.Entries), len(c.Dict))

	for i, tex := range c.Textures {
		fmt.Printf("Texture %d: %q\n", i, tex.Name)
		fmt.Printf("  %dx%dx%d %s, %d mip(s), %d layer(s)\n",
			tex.Width, tex.Height, tex.Depth, tex.Format, tex.MipCount, tex.ArrayLength)
		fmt.Printf("  %s, block height 2^%d, %d data bytes, align %d\n",
			tileModeName(tex.TileMode), tex.BlockHeightLog2, tex.ImageSize, tex.Alignment)
	}
}

func byteOrderName(c *bntx.Container) string {
	if c.LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}

func tileModeName(m swizzle.TileMode) string {
	switch m {
	case swizzle.TileModeBlockLinear:
		return "block-linear"
	case swizzle.TileModeLinear:
		return "linear"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(m))
	}
}
