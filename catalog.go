package rle3

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/bodgit/rle3/carray"
)

// Get returns the asset called name.
func (c *Catalog) Get(name string) (*Asset, error) {
	return c.db.Get(name)
}

// Names returns the names of all assets in the catalog in order.
func (c *Catalog) Names() ([]string, error) {
	return c.db.Names()
}

// Rebuild re-encodes every asset from its stored source using the current
// options.
func (c *Catalog) Rebuild() error {
	names, err := c.db.Names()
	if err != nil {
		return err
	}

	for _, name := range names {
		a, err := c.db.Get(name)
		if err != nil {
			return err
		}

		encoded, err := c.encode(a.Kind, a.Source)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		if err := c.db.SetEncoded(name, encoded); err != nil {
			return err
		}

		c.logger.Printf("Rebuilt %s \"%s\", %d bytes to %d bytes\n", a.Kind, name, len(a.Encoded), len(encoded))
	}

	return nil
}

// symbol returns the C identifier used for the asset called name, which is
// the name without its extension.
func symbol(name string) string {
	return carray.Identifier(strings.TrimSuffix(name, path.Ext(name)))
}

// Export writes every asset as a C array declaration, in name order, with a
// blank line between each.
func (c *Catalog) Export(w io.Writer) error {
	names, err := c.db.Names()
	if err != nil {
		return err
	}

	seen := make(map[string]string, len(names))
	for i, name := range names {
		s := symbol(name)
		if other, ok := seen[s]; ok {
			return fmt.Errorf("rle3: %q and %q both export as %s", other, name, s)
		}
		seen[s] = name

		a, err := c.db.Get(name)
		if err != nil {
			return err
		}

		if i > 0 {
			if _, err := io.WriteString(w, "\n\n"); err != nil {
				return err
			}
		}

		if err := carray.Write(w, s, a.Encoded); err != nil {
			return err
		}
	}

	if len(names) > 0 {
		_, err = io.WriteString(w, "\n")
	}
	return err
}
