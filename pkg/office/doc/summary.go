package doc

import (
	"errors"
	"fmt"

	"github.com/richardlehane/msoleps"

	"docextra/pkg/cfb"
)

// Property is one entry of the summary information property set.
type Property struct {
	Name  string
	Value string
}

// Summary returns the document's summary properties (title, author,
// dates, ...). Documents without a summary stream return nil.
func (d *Document) Summary() ([]Property, error) {
	if d.container == nil {
		return nil, fmt.Errorf("doc: summary of closed document")
	}
	s, err := d.container.OpenStreamByName(SummaryStream)
	if errors.Is(err, cfb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	props, err := msoleps.NewFrom(s)
	if err != nil {
		return nil, fmt.Errorf("summary information: %w", err)
	}
	out := make([]Property, 0, len(props.Property))
	for _, p := range props.Property {
		out = append(out, Property{Name: p.Name, Value: p.String()})
	}
	return out, nil
}
