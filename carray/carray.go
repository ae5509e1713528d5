// Package carray writes byte buffers as C array initializers so that
// encoded assets can be compiled into firmware.
package carray

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
)

const perLine = 16

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Write writes b to w as a const unsigned char array called name.
func Write(w io.Writer, name string, b []byte) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("carray: invalid identifier %q", name)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "const unsigned char %s[%d] = {\n", name, len(b))
	for i, c := range b {
		fmt.Fprintf(bw, " 0x%02x,", c)
		if (i+1)%perLine == 0 {
			bw.WriteByte('\n')
		}
	}
	if len(b)%perLine != 0 {
		bw.WriteByte('\n')
	}
	bw.WriteString("};")
	return bw.Flush()
}

// Identifier turns s into something usable as a C identifier by replacing
// every unusable character with an underscore, prefixing one if s is empty
// or starts with a digit.
func Identifier(s string) string {
	b := []byte(s)
	for i, c := range b {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			b[i] = '_'
		}
	}
	if len(b) == 0 || b[0] >= '0' && b[0] <= '9' {
		b = append([]byte{'_'}, b...)
	}
	return string(b)
}
