package office

import (
	"docextra/internal"
	"docextra/pkg/office/doc"
)

var docParser = &doc.OfficeDocParser{}

// SetDocOptions configures how registered .doc files are decoded, including
// .doc members of archives.
func SetDocOptions(opts ...doc.Option) {
	docParser.Options = opts
}

func init() {
	// doc(7)
	internal.RegisterParser(internal.FileTypeDOC, docParser)
}
