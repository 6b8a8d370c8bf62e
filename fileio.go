package sfs

import (
	"github.com/ksuggs/gosfs/layout"
	"github.com/ksuggs/gosfs/rawinode"
)

func (v *Volume) readDataBlock(relative uint32) ([]byte, error) {
	buf := make([]byte, v.geom.BlockSize)
	if err := v.dev.ReadBlock(v.geom.DataRegionStart+relative, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (v *Volume) writeDataBlock(relative uint32, buf []byte) error {
	return v.dev.WriteBlock(v.geom.DataRegionStart+relative, buf)
}

// writeInodeData writes size bytes from buf at file offset offset against
// in's direct blocks only (spec.md §4.6). No indirect-block resolution: a
// write that would need more than the 12 direct blocks is refused outright.
func (v *Volume) writeInodeData(in *rawinode.Inode, buf []byte, size, offset uint32) (uint32, error) {
	blockSize := v.geom.BlockSize
	startBlock := offset / blockSize

	capacity := (layout.NumDirectBlocks-startBlock)*blockSize - (offset % blockSize)
	if startBlock >= layout.NumDirectBlocks || size > capacity {
		return 0, nil
	}

	i := startBlock
	o := offset % blockSize
	var written, numNew uint32

	for written < size {
		if i >= in.NBlocks {
			bno, err := v.alloc.AllocDataBlock()
			if err != nil {
				return written, err
			}
			in.Blocks[i] = bno
			numNew++
		}

		remaining := size - written
		var count uint32
		if o != 0 {
			count = min32(blockSize-o, remaining)
		} else {
			count = min32(blockSize, remaining)
		}

		block, err := v.readDataBlock(in.Blocks[i])
		if err != nil {
			return written, err
		}
		copy(block[o:o+count], buf[written:written+count])
		if err := v.writeDataBlock(in.Blocks[i], block); err != nil {
			return written, err
		}

		written += count
		i++
		o = 0
	}

	in.NBlocks += numNew
	in.Size = offset + size
	if err := v.inodes.Put(in); err != nil {
		return written, err
	}
	return written, nil
}

// readInodeData reads through in's direct blocks starting at offset,
// terminating at end-of-file rather than at size bytes (spec.md §4.6): it's
// legal to ask for more than remains in the file, in which case fewer bytes
// come back. The source's equivalent loop mixes up its byte counters; this
// reads min(BlockSize-o, size-bytesRead, in.Size-(offset+bytesRead)) per
// iteration, the intended semantics spec.md §4.6/§9 call for.
func (v *Volume) readInodeData(in *rawinode.Inode, buf []byte, size, offset uint32) (uint32, error) {
	if offset >= in.Size {
		return 0, nil
	}

	blockSize := v.geom.BlockSize
	i := offset / blockSize
	o := offset % blockSize
	var read uint32

	for offset+read < in.Size && read < size {
		if i >= in.NBlocks {
			break
		}

		remaining := size - read
		leftInFile := in.Size - (offset + read)
		count := min32(blockSize-o, remaining)
		count = min32(count, leftInFile)

		block, err := v.readDataBlock(in.Blocks[i])
		if err != nil {
			return read, err
		}
		copy(buf[read:read+count], block[o:o+count])

		read += count
		i++
		o = 0
	}
	return read, nil
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
