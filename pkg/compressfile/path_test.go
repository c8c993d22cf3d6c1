package compressfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "escaped.doc", sanitizePath("../../escaped.doc"))
	assert.Equal(t, "a/b.doc", sanitizePath("/a/./b.doc"))
	assert.Equal(t, "a/b.doc", sanitizePath("a/b.doc"))
}

func TestMemberName(t *testing.T) {
	assert.Equal(t, "stored.doc", memberName("stored.doc", "/x/y.gz", ".gz"))
	assert.Equal(t, "memo.doc", memberName("", "/x/memo.doc.xz", ".xz"))
	assert.Equal(t, "MEMO.doc", memberName("", "/x/MEMO.doc.XZ", ".xz"))
	assert.Equal(t, "odd.out", memberName("", "/x/odd", ".bz2"))
}
