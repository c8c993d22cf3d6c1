package cfb_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docextra/internal/fixture"
	"docextra/pkg/cfb"
)

func sampleEntries() []fixture.Entry {
	return []fixture.Entry{
		{Name: "WordDocument", Data: pattern(1200, 1)},
		{Name: "1Table", Data: pattern(300, 2)},
		{Name: "Data", Data: pattern(5000, 3)},
		{Name: "\x05SummaryInformation", Data: pattern(64, 4)},
		{Name: "ObjectPool", Storage: true, Children: []fixture.Entry{
			{Name: "_1234", Storage: true, Children: []fixture.Entry{
				{Name: "\x01Ole", Data: pattern(20, 5)},
			}},
		}},
		{Name: "CompObj", Data: nil},
	}
}

func TestCompareNames(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"abc", "abc", 0},
		{"ab", "abc", -1},
		{"abcd", "abc", 1},
		{"abd", "abc", 1},
		{"ABC", "abc", -1}, // no case folding
		{"Data", "1Table", -1},
		{"\x05SummaryInformation", "WordDocument", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cfb.CompareNames(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestEntryByName(t *testing.T) {
	for _, version := range []int{3, 4} {
		f := fixture.Build(fixture.Options{Version: version, Entries: sampleEntries()})
		r := openBytes(t, f.Bytes)

		root, err := r.EntryByName("Root Entry")
		require.NoError(t, err)
		assert.Equal(t, cfb.TypeRoot, root.Type)
		assert.Equal(t, cfb.RootID, root.ID)

		for _, name := range []string{"WordDocument", "1Table", "Data", "\x05SummaryInformation", "ObjectPool", "CompObj"} {
			e, err := r.EntryByName(name)
			require.NoError(t, err, name)
			assert.Equal(t, name, e.Name)
			assert.Equal(t, f.IDs[name], e.ID)
		}

		pool, err := r.EntryByName("ObjectPool")
		require.NoError(t, err)
		assert.Equal(t, cfb.TypeStorage, pool.Type)

		data, err := r.EntryByName("Data")
		require.NoError(t, err)
		assert.Equal(t, cfb.TypeStream, data.Type)
		assert.Equal(t, uint64(5000), data.Size)
		assert.False(t, data.IsMini())
	}
}

func TestEntryByNameMisses(t *testing.T) {
	r := openBytes(t, fixture.Build(fixture.Options{Entries: sampleEntries()}).Bytes)

	// wrong case, wrong length, and a name that only exists below a storage
	for _, name := range []string{"worddocument", "WordDocumen", "WordDocument2", "\x01Ole", ""} {
		_, err := r.EntryByName(name)
		assert.ErrorIs(t, err, cfb.ErrNotFound, name)
		assert.False(t, errors.Is(err, cfb.ErrFormat), name)
	}
}

func TestEntryByIDIsCached(t *testing.T) {
	f := fixture.Build(fixture.Options{Entries: sampleEntries()})
	r := openBytes(t, f.Bytes)

	a, err := r.EntryByID(f.IDs["Data"])
	require.NoError(t, err)
	b, err := r.EntryByID(f.IDs["Data"])
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestChildrenAndWalk(t *testing.T) {
	r := openBytes(t, fixture.Build(fixture.Options{Entries: sampleEntries()}).Bytes)

	root, err := r.Root()
	require.NoError(t, err)
	children, err := r.Children(root)
	require.NoError(t, err)

	var names []string
	for _, c := range children {
		names = append(names, c.Name)
	}
	// tree order is the name order
	assert.Equal(t, []string{"Data", "1Table", "CompObj", "ObjectPool", "WordDocument", "\x05SummaryInformation"}, names)

	var paths []string
	err = r.Walk(func(path []string, e *cfb.DirectoryEntry) error {
		p := ""
		for _, s := range path {
			p += s + "/"
		}
		paths = append(paths, p+e.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, paths, "ObjectPool/_1234/\x01Ole")
	assert.Len(t, paths, 8)
}

func TestEntryValidation(t *testing.T) {
	le := binary.LittleEndian
	tests := []struct {
		name    string
		corrupt func(rec []byte)
	}{
		{"illegal character", func(rec []byte) { le.PutUint16(rec[0:], '/') }},
		{"name too long", func(rec []byte) { le.PutUint16(rec[64:], 66) }},
		{"object type", func(rec []byte) { rec[66] = 0x03 }},
		{"unallocated", func(rec []byte) { rec[66] = 0x00 }},
		{"color", func(rec []byte) { rec[67] = 0x02 }},
		{"sibling id", func(rec []byte) { le.PutUint32(rec[68:], 0xFFFFFFFB) }},
		{"stream clsid", func(rec []byte) { rec[80] = 1 }},
		{"stream state bits", func(rec []byte) { le.PutUint32(rec[96:], 1) }},
		{"v3 stream size", func(rec []byte) { le.PutUint64(rec[120:], 0x80000001) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fixture.Build(fixture.Options{Entries: sampleEntries()})
			id := f.IDs["CompObj"]
			off := f.EntryOffset(id)
			tt.corrupt(f.Bytes[off : off+128])

			r := openBytes(t, f.Bytes)
			_, err := r.EntryByID(id)
			var fe *cfb.FormatError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, "directory", fe.Part)
		})
	}
}

func TestUnusedDirectorySlotIsUnallocated(t *testing.T) {
	f := fixture.Build(fixture.Options{Entries: sampleEntries()})
	r := openBytes(t, f.Bytes)

	_, err := r.EntryByID(uint32(len(f.IDs)))
	assert.ErrorIs(t, err, cfb.ErrFormat)

	_, err = r.EntryByID(cfb.NoStream)
	assert.ErrorIs(t, err, cfb.ErrFormat)
}

func TestRootMustBeRootStorage(t *testing.T) {
	f := fixture.Build(fixture.Options{Entries: sampleEntries()})
	f.Bytes[f.EntryOffset(0)+66] = 0x01

	r := openBytes(t, f.Bytes)
	_, err := r.EntryByName("WordDocument")
	assert.ErrorIs(t, err, cfb.ErrFormat)
}

func TestSiblingCycle(t *testing.T) {
	f := fixture.Build(fixture.Options{Entries: sampleEntries()})
	r0 := openBytes(t, f.Bytes)
	root, err := r0.Root()
	require.NoError(t, err)

	// point the top of the root's tree at itself on both sides
	top := f.EntryOffset(root.ChildID)
	binary.LittleEndian.PutUint32(f.Bytes[top+68:], root.ChildID)
	binary.LittleEndian.PutUint32(f.Bytes[top+72:], root.ChildID)

	r := openBytes(t, f.Bytes)
	_, err = r.EntryByName("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzz")
	assert.ErrorIs(t, err, cfb.ErrFormat)
	_, err = r.EntryByName("a")
	assert.ErrorIs(t, err, cfb.ErrFormat)

	rootAgain, err := r.Root()
	require.NoError(t, err)
	_, err = r.Children(rootAgain)
	assert.ErrorIs(t, err, cfb.ErrFormat)
}

func TestLookupAfterClose(t *testing.T) {
	f := fixture.Build(fixture.Options{Entries: sampleEntries()})
	r := openBytes(t, f.Bytes)
	_, err := r.EntryByName("Data")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	// NewReader does not own the bytes, so lookups keep working
	e, err := r.EntryByName("Data")
	require.NoError(t, err)
	assert.Equal(t, f.IDs["Data"], e.ID)
}

func TestStreamSizeBeyondInt64(t *testing.T) {
	f := fixture.Build(fixture.Options{Version: 4, Entries: sampleEntries()})
	id := f.IDs["CompObj"]
	binary.LittleEndian.PutUint64(f.Bytes[f.EntryOffset(id)+120:], 1<<63)

	r := openBytes(t, f.Bytes)
	_, err := r.EntryByID(id)
	var fe *cfb.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "directory", fe.Part)
	assert.ErrorContains(t, err, "int64")
}
