package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ksuggs/gosfs/blockdev"
	"github.com/ksuggs/gosfs/fsck"
	"github.com/ksuggs/gosfs/layout"
)

func fsckCommand() *cli.Command {
	return &cli.Command{
		Name:      "fsck",
		Usage:     "Check an SFS image for internal inconsistencies",
		ArgsUsage: "IMAGE_PATH",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "block-size", Value: 512, Usage: "bytes per block"},
			&cli.UintFlag{Name: "data-blocks", Value: 4096, Usage: "number of data blocks"},
		},
		Action: runFsck,
	}
}

func runFsck(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one argument, IMAGE_PATH")
	}
	path := c.Args().First()
	blockSize := uint32(c.Uint("block-size"))
	numDataBlocks := uint32(c.Uint("data-blocks"))
	geom := layout.NewGeometry(blockSize, numDataBlocks)

	dev, err := blockdev.OpenFile(path, blockSize, numDataBlocks)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer dev.Close()

	report := fsck.Check(dev, geom)
	fmt.Printf("checked %d inodes, %d data block pointers\n", report.InodesChecked, report.DataBlocksChecked)
	if report.OK() {
		fmt.Println("no inconsistencies found")
		return nil
	}

	for _, e := range report.Errors.Errors {
		fmt.Printf("  - %s\n", e)
	}
	return fmt.Errorf("%d inconsistencies found in %s", report.Errors.Len(), path)
}
