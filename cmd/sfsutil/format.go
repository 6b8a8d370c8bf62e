package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ksuggs/gosfs/blockdev"
	"github.com/ksuggs/gosfs/layout"
	sfs "github.com/ksuggs/gosfs"
)

func formatCommand() *cli.Command {
	return &cli.Command{
		Name:      "format",
		Usage:     "Create or wipe an SFS image",
		ArgsUsage: "IMAGE_PATH",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "block-size", Value: 512, Usage: "bytes per block"},
			&cli.UintFlag{Name: "data-blocks", Value: 4096, Usage: "number of data blocks"},
		},
		Action: runFormat,
	}
}

func runFormat(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one argument, IMAGE_PATH")
	}
	path := c.Args().First()
	blockSize := uint32(c.Uint("block-size"))
	numDataBlocks := uint32(c.Uint("data-blocks"))

	// format always wipes: remove any existing image first so OpenFile sees
	// a fresh empty file and the volume lifecycle formats rather than mounts.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing existing image %s: %w", path, err)
	}

	geom := layout.NewGeometry(blockSize, numDataBlocks)
	dev, err := blockdev.OpenFile(path, blockSize, geom.TotalBlocks())
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	v := sfs.New(dev, sfs.FormatOptions{BlockSize: blockSize, NumDataBlocks: numDataBlocks}, nil)
	if err := v.Mount(); err != nil {
		return fmt.Errorf("formatting %s: %w", path, err)
	}
	if err := v.Unmount(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	fmt.Printf("formatted %s: %d-byte blocks, %d data blocks\n", path, blockSize, numDataBlocks)
	return nil
}
