package rle3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/bodgit/rle3/font"
	rle3image "github.com/bodgit/rle3/image"
	"github.com/bodgit/rle3/vlw"
	_ "github.com/xfmoulet/qoi"
)

// Ignore any source file greater than 16 MB
const maxSourceSize = 16 << (10 * 2)

type sourceFile struct {
	path string
	name string
	kind Kind
}

// encode converts the source of an asset using the catalog options. Encoder
// diagnostics are not logged as workers run concurrently.
func (c *Catalog) encode(kind Kind, source []byte) ([]byte, error) {
	b := new(bytes.Buffer)
	switch kind {
	case KindImage:
		m, _, err := image.Decode(bytes.NewReader(source))
		if err != nil {
			return nil, err
		}
		o := *c.options.Image
		o.Logger = nil
		if err := rle3image.Encode(b, m, &o); err != nil {
			return nil, err
		}
	case KindFont:
		src := new(vlw.Font)
		if err := src.UnmarshalBinary(source); err != nil {
			return nil, err
		}
		o := *c.options.Font
		o.Logger = nil
		if err := font.Encode(b, src, &o); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("rle3: unknown asset kind %d", kind)
	}
	return b.Bytes(), nil
}

func (c *Catalog) findFiles(ctx context.Context, base string) (<-chan sourceFile, <-chan error, error) {
	out := make(chan sourceFile)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() || info.Size() > maxSourceSize {
				return nil
			}

			kind := kindOf(file)
			if kind == 0 {
				return nil
			}

			name, err := filepath.Rel(base, file)
			if err != nil {
				return err
			}

			select {
			case out <- sourceFile{path: file, name: filepath.ToSlash(name), kind: kind}:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (c *Catalog) fileWorker(ctx context.Context, in <-chan sourceFile) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for f := range in {
			source, fp, err := readFile(f.path)
			if err != nil {
				errc <- err
				return
			}

			switch old, err := c.db.Fingerprint(f.name); {
			case err == nil && old == fp:
				c.logger.Printf("Unchanged \"%s\", with fingerprint \"%s\"\n", f.name, fp)
				continue
			case err != nil && !errors.Is(err, ErrNotFound):
				errc <- err
				return
			}

			encoded, err := c.encode(f.kind, source)
			if err != nil {
				errc <- fmt.Errorf("%s: %w", f.path, err)
				return
			}

			if err := c.db.Put(&Asset{
				Name:        f.name,
				Kind:        f.kind,
				Fingerprint: fp,
				Source:      source,
				Encoded:     encoded,
			}); err != nil {
				errc <- err
				return
			}

			c.logger.Printf("Encoded %s \"%s\", %d bytes to %d bytes\n", f.kind, f.name, len(source), len(encoded))
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks path and adds every image and font found to the catalog. Assets
// are named by their slash-separated path relative to path. Files whose
// contents are unchanged since the last scan are skipped.
func (c *Catalog) Scan(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := c.findFiles(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < runtime.NumCPU(); i++ {
		errc, err := c.fileWorker(ctx, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
