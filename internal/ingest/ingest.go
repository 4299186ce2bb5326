// Package ingest names the external collaborator boundary spec.md 1
// draws around contest data sources: the core never reads a file or a
// socket itself, it only accepts already-decoded Contest values from a
// Source.
package ingest

import "ratingcore/internal/driver"

// Source is anything that can hand the driver a sequence of contests to
// replay in order. Implementations own the wire format and the
// connection, if any; the core's only contract with them is this
// interface.
type Source interface {
	// Contests returns every contest this source holds, already in the
	// sequential order the driver must process them (spec.md 5: "the
	// sequence of contests is processed sequentially in the order
	// supplied").
	Contests() ([]driver.Contest, error)
}
