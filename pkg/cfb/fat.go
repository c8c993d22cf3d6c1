package cfb

// fatSectorFor resolves the location of the block-th FAT sector: the
// first 109 come from the header, the rest from the DIFAT sector chain.
func (r *Reader) fatSectorFor(block uint32) (uint32, error) {
	if block < HeaderDIFATLen {
		return r.header.DIFAT[block], nil
	}
	block -= HeaderDIFATLen

	// the last slot of each DIFAT sector links to the next one
	perDIFAT := r.perSector - 1
	difat := r.header.DIFATStart
	for steps := uint32(0); block >= perDIFAT; steps++ {
		if steps >= r.sectorCount {
			return 0, NewFormatError("difat", "DIFAT chain is longer than the file allows")
		}
		if err := r.checkSector("difat", difat); err != nil {
			return 0, err
		}
		next, err := r.readUint32("difat", r.sectorOffset(difat)+int64(perDIFAT)*4)
		if err != nil {
			return 0, err
		}
		difat = next
		block -= perDIFAT
	}
	if err := r.checkSector("difat", difat); err != nil {
		return 0, err
	}
	return r.readUint32("difat", r.sectorOffset(difat)+int64(block)*4)
}

// nextSector returns the FAT successor of sector, or EndOfChain.
func (r *Reader) nextSector(sector uint32) (uint32, error) {
	fatSector, err := r.fatSectorFor(sector / r.perSector)
	if err != nil {
		return 0, err
	}
	if err := r.checkSector("fat", fatSector); err != nil {
		return 0, err
	}
	next, err := r.readUint32("fat", r.sectorOffset(fatSector)+int64(sector%r.perSector)*4)
	if err != nil {
		return 0, err
	}
	if next > MaxRegSect && next != EndOfChain {
		return 0, NewFormatError("fat", "sector %d is chained to %#x", sector, next)
	}
	return next, nil
}
