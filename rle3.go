/*
Package rle3 maintains a catalog of display assets for firmware builds.

Images are stored in the RLE3 format and VLW fonts are converted to 7SF.
The catalog keeps both the compressed source and the encoded result of every
asset in an SQLite database so that assets can be rebuilt with different
encoding options and exported as C arrays.
*/
package rle3

import (
	"io/ioutil"
	"log"

	"github.com/bodgit/rle3/font"
	rle3image "github.com/bodgit/rle3/image"
)

// Options holds the encoding parameters used for catalog assets.
type Options struct {
	Image *rle3image.Options
	Font  *font.Options
}

// DefaultOptions returns the default encoding parameters.
func DefaultOptions() *Options {
	return &Options{
		Image: rle3image.DefaultOptions(),
		Font:  font.DefaultOptions(),
	}
}

// Catalog is an asset catalog backed by a database file.
type Catalog struct {
	db      *AssetDB
	options *Options
	logger  *log.Logger
}

// New opens the catalog in file, creating it if necessary. If o, or either
// of its fields, is nil then the defaults are used, o itself is never
// modified. If logger is nil then nothing is logged.
func New(file string, o *Options, logger *log.Logger) (*Catalog, error) {
	db, err := NewAssetDB(file)
	if err != nil {
		return nil, err
	}

	options := DefaultOptions()
	if o != nil {
		if o.Image != nil {
			options.Image = o.Image
		}
		if o.Font != nil {
			options.Font = o.Font
		}
	}

	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}

	return &Catalog{
		db:      db,
		options: options,
		logger:  logger,
	}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
