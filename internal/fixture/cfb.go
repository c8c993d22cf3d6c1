// Package fixture builds small compound files and Word documents in
// memory for tests. It writes only what the readers need: a single FAT
// without DIFAT sectors, a MiniFAT, a directory tree and stream data.
package fixture

import (
	"encoding/binary"
	"fmt"
	"sort"
	"unicode/utf16"
)

const (
	endOfChain uint32 = 0xFFFFFFFE
	freeSect   uint32 = 0xFFFFFFFF
	fatSect    uint32 = 0xFFFFFFFD
	noStream   uint32 = 0xFFFFFFFF

	miniCutoff = 4096
	miniSize   = 64
	entrySize  = 128
)

// Entry is a stream, or a storage when Storage is set.
type Entry struct {
	Name     string
	Data     []byte
	Storage  bool
	Children []Entry
}

// Options describe the container to build.
type Options struct {
	Version  int // 3 (default) or 4
	RootName string
	Entries  []Entry
}

// File is a built container.
type File struct {
	Bytes      []byte
	SectorSize int
	// ids by slash separated path, "" for the root
	IDs map[string]uint32

	dirSectors []uint32
}

// EntryOffset is the file offset of directory record id.
func (f *File) EntryOffset(id uint32) int64 {
	per := uint32(f.SectorSize / entrySize)
	sector := f.dirSectors[id/per]
	return int64(sector+1)*int64(f.SectorSize) + int64(id%per)*entrySize
}

type node struct {
	id       uint32
	path     string
	entry    Entry
	children []*node
	left     uint32
	right    uint32
	child    uint32
	start    uint32
	size     uint64
}

func compareNames(a, b string) int {
	ua, ub := utf16.Encode([]rune(a)), utf16.Encode([]rune(b))
	if len(ua) != len(ub) {
		if len(ua) < len(ub) {
			return -1
		}
		return 1
	}
	for i := range ua {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// link turns sorted siblings into a balanced binary tree and returns the
// id of its top.
func link(sorted []*node) uint32 {
	if len(sorted) == 0 {
		return noStream
	}
	mid := len(sorted) / 2
	sorted[mid].left = link(sorted[:mid])
	sorted[mid].right = link(sorted[mid+1:])
	return sorted[mid].id
}

func chainSectors(first uint32, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = first + uint32(i)
	}
	return out
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Build lays the container out as: FAT sectors, directory, MiniFAT,
// mini stream, then regular streams in directory order.
func Build(opts Options) *File {
	version := opts.Version
	if version == 0 {
		version = 3
	}
	shift := uint16(9)
	if version == 4 {
		shift = 12
	}
	ss := 1 << shift
	rootName := opts.RootName
	if rootName == "" {
		rootName = "Root Entry"
	}

	// assign ids depth first
	root := &node{id: 0, entry: Entry{Name: rootName, Storage: true}}
	all := []*node{root}
	var add func(parent *node, entries []Entry)
	add = func(parent *node, entries []Entry) {
		for _, e := range entries {
			n := &node{id: uint32(len(all)), entry: e}
			if parent.path == "" {
				n.path = e.Name
			} else {
				n.path = parent.path + "/" + e.Name
			}
			parent.children = append(parent.children, n)
			all = append(all, n)
			if e.Storage {
				add(n, e.Children)
			}
		}
	}
	add(root, opts.Entries)
	for _, n := range all {
		sort.Slice(n.children, func(i, j int) bool {
			return compareNames(n.children[i].entry.Name, n.children[j].entry.Name) < 0
		})
		n.child = link(n.children)
	}
	root.left, root.right = noStream, noStream

	// mini stream
	var mini []byte
	var minifat []uint32
	for _, n := range all[1:] {
		if n.entry.Storage {
			continue
		}
		n.size = uint64(len(n.entry.Data))
		if len(n.entry.Data) >= miniCutoff {
			continue
		}
		if len(n.entry.Data) == 0 {
			n.start = endOfChain
			continue
		}
		count := ceilDiv(len(n.entry.Data), miniSize)
		n.start = uint32(len(minifat))
		for i := 0; i < count; i++ {
			minifat = append(minifat, uint32(len(minifat))+1)
		}
		minifat[len(minifat)-1] = endOfChain
		padded := make([]byte, count*miniSize)
		copy(padded, n.entry.Data)
		mini = append(mini, padded...)
	}

	dirCount := ceilDiv(len(all)*entrySize, ss)
	miniFATCount := ceilDiv(len(minifat)*4, ss)
	miniStreamCount := ceilDiv(len(mini), ss)
	regular := 0
	for _, n := range all[1:] {
		if !n.entry.Storage && len(n.entry.Data) >= miniCutoff {
			regular += ceilDiv(len(n.entry.Data), ss)
		}
	}
	body := dirCount + miniFATCount + miniStreamCount + regular
	fatCount := 1
	for fatCount*(ss/4) < body+fatCount {
		fatCount++
	}
	if fatCount > 109 {
		panic(fmt.Sprintf("fixture: %d FAT sectors need DIFAT sectors", fatCount))
	}
	total := fatCount + body

	fat := make([]uint32, fatCount*(ss/4))
	for i := range fat {
		fat[i] = freeSect
	}
	next := uint32(0)
	alloc := func(n int) uint32 {
		if n == 0 {
			return endOfChain
		}
		first := next
		for i := 0; i < n; i++ {
			fat[next] = next + 1
			next++
		}
		fat[next-1] = endOfChain
		return first
	}
	for i := 0; i < fatCount; i++ {
		fat[next] = fatSect
		next++
	}
	dirStart := alloc(dirCount)
	miniFATStart := alloc(miniFATCount)
	miniStart := alloc(miniStreamCount)
	root.start, root.size = miniStart, uint64(len(mini))
	if len(mini) == 0 {
		root.start = endOfChain
	}
	for _, n := range all[1:] {
		if !n.entry.Storage && len(n.entry.Data) >= miniCutoff {
			n.start = alloc(ceilDiv(len(n.entry.Data), ss))
		}
	}

	out := make([]byte, (total+1)*ss)
	le := binary.LittleEndian

	// header
	copy(out, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	le.PutUint16(out[24:], 0x003E)
	le.PutUint16(out[26:], uint16(version))
	le.PutUint16(out[28:], 0xFFFE)
	le.PutUint16(out[30:], shift)
	le.PutUint16(out[32:], 6)
	if version == 4 {
		le.PutUint32(out[40:], uint32(dirCount))
	}
	le.PutUint32(out[44:], uint32(fatCount))
	le.PutUint32(out[48:], dirStart)
	le.PutUint32(out[56:], miniCutoff)
	le.PutUint32(out[60:], miniFATStart)
	le.PutUint32(out[64:], uint32(miniFATCount))
	le.PutUint32(out[68:], endOfChain)
	le.PutUint32(out[72:], 0)
	for i := 0; i < 109; i++ {
		v := freeSect
		if i < fatCount {
			v = uint32(i)
		}
		le.PutUint32(out[76+4*i:], v)
	}

	sectorAt := func(s uint32) []byte {
		off := (int(s) + 1) * ss
		return out[off : off+ss]
	}
	writeChain := func(first uint32, data []byte) {
		for s := first; len(data) > 0; s++ {
			n := copy(sectorAt(s), data)
			data = data[n:]
		}
	}

	fatBytes := make([]byte, len(fat)*4)
	for i, v := range fat {
		le.PutUint32(fatBytes[4*i:], v)
	}
	writeChain(0, fatBytes)

	dir := make([]byte, dirCount*ss)
	for i := len(all); i < dirCount*ss/entrySize; i++ {
		rec := dir[i*entrySize:]
		le.PutUint32(rec[68:], noStream)
		le.PutUint32(rec[72:], noStream)
		le.PutUint32(rec[76:], noStream)
	}
	for _, n := range all {
		rec := dir[int(n.id)*entrySize : int(n.id+1)*entrySize]
		units := utf16.Encode([]rune(n.entry.Name))
		for i, u := range units {
			le.PutUint16(rec[2*i:], u)
		}
		le.PutUint16(rec[64:], uint16(2*(len(units)+1)))
		switch {
		case n.id == 0:
			rec[66] = 0x05
		case n.entry.Storage:
			rec[66] = 0x01
		default:
			rec[66] = 0x02
		}
		rec[67] = 0x01 // black
		le.PutUint32(rec[68:], n.left)
		le.PutUint32(rec[72:], n.right)
		le.PutUint32(rec[76:], n.child)
		if !n.entry.Storage || n.id == 0 {
			le.PutUint32(rec[116:], n.start)
			le.PutUint64(rec[120:], n.size)
		}
	}
	writeChain(dirStart, dir)

	if miniFATCount > 0 {
		buf := make([]byte, miniFATCount*ss)
		for i := range buf {
			buf[i] = 0xFF
		}
		for i, v := range minifat {
			le.PutUint32(buf[4*i:], v)
		}
		writeChain(miniFATStart, buf)
	}
	if miniStreamCount > 0 {
		writeChain(miniStart, mini)
	}
	for _, n := range all[1:] {
		if !n.entry.Storage && len(n.entry.Data) >= miniCutoff {
			writeChain(n.start, n.entry.Data)
		}
	}

	ids := make(map[string]uint32, len(all))
	for _, n := range all {
		ids[n.path] = n.id
	}
	return &File{
		Bytes:      out,
		SectorSize: ss,
		IDs:        ids,
		dirSectors: chainSectors(dirStart, dirCount),
	}
}
