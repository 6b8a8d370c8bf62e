// Package layout computes the on-disk region offsets for an SFS volume from
// its fixed parameters, the way unixv1's format.go derives bitmap sizes and
// the first data block from stat.Files and stat.TotalBlocks.
package layout

// Fixed global parameters (spec.md §3).
const (
	NumInodes         = 256
	InodeSize         = 128
	NumBlockPointers  = 15 // direct + indirect slots per inode
	NumDirectBlocks   = 12
	DentrySize        = 64
	MaxFileNameLength = 32
	SuperblockMagic   = 0x53465331 // "SFS1"
	InvalidIno        = 0xFFFFFFFF
	InvalidBlock      = 0xFFFFFFFF
)

// Geometry holds the computed region layout for one volume, derived once at
// Format/Mount time from BlockSize and NumDataBlocks.
type Geometry struct {
	BlockSize     uint32
	NumDataBlocks uint32

	// Region starts, in blocks from the beginning of the image.
	SuperblockStart  uint32
	InodeBitmapStart uint32
	DataBitmapStart  uint32
	DataBitmapBlocks uint32
	InodeTableStart  uint32
	InodeTableBlocks uint32
	DataRegionStart  uint32
}

// NewGeometry computes a Geometry for a volume with the given block size and
// data region size.
//
// The source computes the data bitmap block count as
// NumDataBlocks/(BlockSize*8), which implies bit-per-slot packing, yet reads
// and writes it with one byte per slot. At byte-per-slot that formula starves
// the bitmap region for anything but tiny images. Per spec.md §9 this
// implementation takes option (a): keep byte-per-slot encoding and recompute
// the block count as ceil(NumDataBlocks / BlockSize).
func NewGeometry(blockSize, numDataBlocks uint32) Geometry {
	dataBitmapBlocks := ceilDiv(numDataBlocks, blockSize)
	inodeTableBlocks := NumInodes / (blockSize / InodeSize)
	if NumInodes%(blockSize/InodeSize) != 0 {
		inodeTableBlocks++
	}

	inodeBitmapStart := uint32(1)
	dataBitmapStart := inodeBitmapStart + 1
	inodeTableStart := dataBitmapStart + dataBitmapBlocks
	dataRegionStart := inodeTableStart + inodeTableBlocks

	return Geometry{
		BlockSize:        blockSize,
		NumDataBlocks:    numDataBlocks,
		SuperblockStart:  0,
		InodeBitmapStart: inodeBitmapStart,
		DataBitmapStart:  dataBitmapStart,
		DataBitmapBlocks: dataBitmapBlocks,
		InodeTableStart:  inodeTableStart,
		InodeTableBlocks: inodeTableBlocks,
		DataRegionStart:  dataRegionStart,
	}
}

// TotalBlocks returns the minimum number of blocks the backing image must
// have to hold this geometry's regions plus its data region.
func (g Geometry) TotalBlocks() uint32 {
	return g.DataRegionStart + g.NumDataBlocks
}

// InodesPerBlock is how many packed inode records fit in one block.
func (g Geometry) InodesPerBlock() uint32 {
	return g.BlockSize / InodeSize
}

// DentriesPerBlock is how many packed directory entries fit in one block.
func (g Geometry) DentriesPerBlock() uint32 {
	return g.BlockSize / DentrySize
}

// InodeBlockAndOffset returns which block of the inode table holds ino, and
// the byte offset of its record within that block.
func (g Geometry) InodeBlockAndOffset(ino uint32) (block uint32, offset uint32) {
	perBlock := g.InodesPerBlock()
	return g.InodeTableStart + ino/perBlock, (ino % perBlock) * InodeSize
}

// DataBitmapBlockAndOffset returns which block of the data bitmap region
// holds the flag byte for data block bno, and its byte offset within that
// block. Bitmap encoding is byte-per-slot (spec.md §3): slot k lives at byte
// offset k mod BlockSize of bitmap block k/BlockSize.
func (g Geometry) DataBitmapBlockAndOffset(bno uint32) (block uint32, offset uint32) {
	return g.DataBitmapStart + bno/g.BlockSize, bno % g.BlockSize
}

// InodeBitmapBlockAndOffset is the inode-bitmap analog of
// DataBitmapBlockAndOffset. The inode bitmap region is always exactly one
// block (NumInodes <= BlockSize for any sane BlockSize).
func (g Geometry) InodeBitmapBlockAndOffset(ino uint32) (block uint32, offset uint32) {
	return g.InodeBitmapStart + ino/g.BlockSize, ino % g.BlockSize
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	if a%b == 0 {
		return a / b
	}
	return a/b + 1
}
