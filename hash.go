package rle3

import (
	"fmt"
	"io/ioutil"

	"github.com/cespare/xxhash/v2"
)

func fingerprint(b []byte) string {
	return fmt.Sprintf("%016X", xxhash.Sum64(b))
}

// readFile returns the contents of file along with its fingerprint.
func readFile(file string) ([]byte, string, error) {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, "", err
	}
	return b, fingerprint(b), nil
}
