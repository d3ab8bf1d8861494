package reader

import (
	"fmt"

	"github.com/lvillar/pdftpl/object"
)

// IndirectObject represents a PDF indirect object definition (e.g., "10 0 obj ... endobj").
type IndirectObject struct {
	object.Reference
	Value object.Object
}

func (o IndirectObject) String() string {
	return fmt.Sprintf("%d %d obj %s", o.Number, o.Generation, o.Value)
}
