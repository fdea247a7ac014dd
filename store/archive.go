package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/kode4food/tremor"
)

type (
	// Archive persists normalized catalogs by dataset name so a session
	// can start without re-ingesting the source file
	Archive interface {
		Put(context.Context, string, *Record) error
		Get(context.Context, string) (*Record, error)
		Delete(context.Context, string) error
		List(context.Context) ([]string, error)
		Close() error
	}

	// Record stores the extent and events of an archived catalog
	Record struct {
		Extent tremor.Extent  `json:"extent"`
		Events []tremor.Event `json:"events"`
	}
)

var (
	// ErrNotFound indicates no catalog is archived under the name
	ErrNotFound = errors.New("archived catalog not found")

	// ErrInvalidName indicates a dataset name that cannot be used as a key
	ErrInvalidName = errors.New("invalid dataset name")
)

// FromCatalog captures a catalog's extent and events
func FromCatalog(c *tremor.Catalog) *Record {
	return &Record{
		Extent: c.Extent(),
		Events: c.Events(),
	}
}

// Catalog rebuilds the catalog, checking order and identity again
func (r *Record) Catalog() (*tremor.Catalog, error) {
	return tremor.NewCatalog(r.Events, r.Extent)
}

// CheckName rejects empty names and names containing whitespace or control
// characters
func CheckName(name string) error {
	if name == "" || strings.IndexFunc(name, invalidNameRune) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func invalidNameRune(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}
