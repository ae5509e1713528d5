package rle3

import (
	"path/filepath"
	"strings"
)

// Kind is the type of an asset.
type Kind int

const (
	// KindImage is an icon or other image stored as RLE3.
	KindImage Kind = iota + 1
	// KindFont is a VLW font stored as 7SF.
	KindFont
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindFont:
		return "font"
	}
	return "unknown"
}

// kindOf returns the kind of asset file names, or 0 if it should be ignored.
func kindOf(file string) Kind {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".gif", ".jpeg", ".jpg", ".png", ".qoi":
		return KindImage
	case ".vlw":
		return KindFont
	}
	return 0
}
