package cfb

// nextMiniSector returns the MiniFAT successor of a mini sector, or
// EndOfChain. The MiniFAT is itself a FAT chained stream.
func (r *Reader) nextMiniSector(mini uint32) (uint32, error) {
	sector, err := walk(r.header.MiniFATStart, int64(mini/r.perSector), r.sectorCount, "minifat", r.nextSector)
	if err != nil {
		return 0, err
	}
	if sector == EndOfChain {
		return EndOfChain, nil
	}
	if err := r.checkSector("minifat", sector); err != nil {
		return 0, err
	}
	next, err := r.readUint32("minifat", r.sectorOffset(sector)+int64(mini%r.perSector)*4)
	if err != nil {
		return 0, err
	}
	if next > MaxRegSect && next != EndOfChain {
		return 0, NewFormatError("minifat", "mini sector %d is chained to %#x", mini, next)
	}
	return next, nil
}

// miniSectorLimit bounds mini chain walks: the mini stream cannot hold
// more mini sectors than the file has room for.
func (r *Reader) miniSectorLimit() uint32 {
	n := uint64(r.sectorCount) << (r.header.SectorShift - MiniSectorShift)
	if n > uint64(MaxRegSect) {
		return MaxRegSect
	}
	return uint32(n)
}
