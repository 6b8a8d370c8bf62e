package sfs

import (
	"encoding/binary"

	"github.com/noxer/bytewriter"
)

// superblock is the on-disk record at block 0 (spec.md §3).
type superblock struct {
	Magic             uint32
	NumDataBlocks     uint32
	NumFreeBlocks     uint32
	NumInodes         uint32
	BitmapInodeBlocks uint32 // region start
	BitmapDataBlocks  uint32 // region start
	InodeRoot         uint32
}

func (sb *superblock) encode(blockSize uint32) []byte {
	buf := make([]byte, blockSize)
	w := bytewriter.New(buf)
	binary.Write(w, binary.LittleEndian, sb.Magic)
	binary.Write(w, binary.LittleEndian, sb.NumDataBlocks)
	binary.Write(w, binary.LittleEndian, sb.NumFreeBlocks)
	binary.Write(w, binary.LittleEndian, sb.NumInodes)
	binary.Write(w, binary.LittleEndian, sb.BitmapInodeBlocks)
	binary.Write(w, binary.LittleEndian, sb.BitmapDataBlocks)
	binary.Write(w, binary.LittleEndian, sb.InodeRoot)
	return buf
}

func decodeSuperblock(record []byte) superblock {
	return superblock{
		Magic:             binary.LittleEndian.Uint32(record[0:4]),
		NumDataBlocks:     binary.LittleEndian.Uint32(record[4:8]),
		NumFreeBlocks:     binary.LittleEndian.Uint32(record[8:12]),
		NumInodes:         binary.LittleEndian.Uint32(record[12:16]),
		BitmapInodeBlocks: binary.LittleEndian.Uint32(record[16:20]),
		BitmapDataBlocks:  binary.LittleEndian.Uint32(record[20:24]),
		InodeRoot:         binary.LittleEndian.Uint32(record[24:28]),
	}
}
