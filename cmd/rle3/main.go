package main

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/rle3"
	"github.com/bodgit/rle3/carray"
	"github.com/bodgit/rle3/font"
	rle3image "github.com/bodgit/rle3/image"
	"github.com/bodgit/rle3/rgb565"
	"github.com/bodgit/rle3/vlw"
	"github.com/urfave/cli/v2"
	_ "github.com/xfmoulet/qoi"
)

const defaultDB = "rle3.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func parseKey(s string) (rle3image.Key, error) {
	if s == "" {
		return rle3image.NoKey, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return rle3image.Key{}, fmt.Errorf("invalid key %q, expected R,G,B", s)
	}
	var v [3]uint16
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return rle3image.Key{}, fmt.Errorf("invalid key %q: %w", s, err)
		}
		v[i] = uint16(n)
	}
	return rle3image.Key{R: v[0], G: v[1], B: v[2]}, nil
}

func imageOptions(c *cli.Context, logger *log.Logger) (*rle3image.Options, error) {
	o := rle3image.DefaultOptions()
	o.Transparency = !c.Bool("no-transparency")
	o.Reduce = c.Bool("reduce")
	o.Logger = logger

	var err error
	if o.Key, err = parseKey(c.String("key")); err != nil {
		return nil, err
	}
	if o.Push, err = rle3image.ParsePushMode(c.String("push")); err != nil {
		return nil, err
	}
	return o, nil
}

func fontOptions(c *cli.Context, logger *log.Logger) *font.Options {
	o := font.DefaultOptions()
	o.Push = !c.Bool("no-push")
	o.Logger = logger
	return o
}

var imageFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:  "no-transparency",
		Usage: "do not write an alpha column for opaque images",
	},
	&cli.StringFlag{
		Name:  "key",
		Usage: "color written as transparent, as R,G,B",
	},
	&cli.StringFlag{
		Name:  "push",
		Value: rle3image.PushAuto.String(),
		Usage: "brighten alpha palettes: auto, always or never",
	},
	&cli.BoolFlag{
		Name:  "reduce",
		Usage: "quantize images with more than eight colors",
	},
}

var fontFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:  "no-push",
		Usage: "do not brighten the font palette",
	},
}

func writeFile(file string, write func(io.Writer) error) error {
	b := new(bytes.Buffer)
	if err := write(b); err != nil {
		return err
	}
	return ioutil.WriteFile(file, b.Bytes(), 0644)
}

func catalogOptions(c *cli.Context, logger *log.Logger) (*rle3.Options, error) {
	img, err := imageOptions(c, logger)
	if err != nil {
		return nil, err
	}
	return &rle3.Options{
		Image: img,
		Font:  fontOptions(c, logger),
	}, nil
}

func main() {
	app := cli.NewApp()

	app.Name = "rle3"
	app.Usage = "RLE3 image and 7SF font encoder"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"RLE3_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "image",
			Usage:     "Encode an image as RLE3",
			ArgsUsage: "INPUT OUTPUT",
			Flags:     imageFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				o, err := imageOptions(c, newLogger(c))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				f, err := os.Open(c.Args().Get(0))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				m, _, err := image.Decode(f)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := writeFile(c.Args().Get(1), func(w io.Writer) error {
					return rle3image.Encode(w, m, o)
				}); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "font",
			Usage:     "Convert a VLW font to 7SF",
			ArgsUsage: "INPUT OUTPUT",
			Flags:     fontFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				b, err := ioutil.ReadFile(c.Args().Get(0))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				src := new(vlw.Font)
				if err := src.UnmarshalBinary(b); err != nil {
					return cli.NewExitError(err, 1)
				}

				o := fontOptions(c, newLogger(c))
				if err := writeFile(c.Args().Get(1), func(w io.Writer) error {
					return font.Encode(w, src, o)
				}); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "decode",
			Usage:     "Decode an RLE3 image to PNG",
			ArgsUsage: "INPUT OUTPUT",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				f, err := os.Open(c.Args().Get(0))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				m, err := rle3image.Decode(f)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := writeFile(c.Args().Get(1), func(w io.Writer) error {
					return png.Encode(w, m)
				}); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "preview",
			Usage:     "Print an RLE3 image or 7SF font as text",
			ArgsUsage: "INPUT",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				b, err := ioutil.ReadFile(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if bytes.HasPrefix(b, []byte("RLE3")) {
					f := new(rle3image.File)
					if err := f.UnmarshalBinary(b); err != nil {
						return cli.NewExitError(err, 1)
					}
					fmt.Print(f)
					return nil
				}

				f := new(font.Font)
				if err := f.UnmarshalBinary(b); err != nil {
					return cli.NewExitError(err, 1)
				}
				for i := range f.Glyphs {
					g := &f.Glyphs[i]
					fmt.Printf("%q %dx%d advance %d\n%s\n", rune(g.Code), g.Width, g.Height, g.Advance, f.Preview(g))
				}
				return nil
			},
		},
		{
			Name:      "carray",
			Usage:     "Write a file as a C array",
			ArgsUsage: "INPUT OUTPUT",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "name",
					Usage: "array name, defaults to the input file name",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				in := c.Args().Get(0)
				b, err := ioutil.ReadFile(in)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				name := c.String("name")
				if name == "" {
					base := filepath.Base(in)
					name = carray.Identifier(strings.TrimSuffix(base, filepath.Ext(base)))
				}

				if err := writeFile(c.Args().Get(1), func(w io.Writer) error {
					if err := carray.Write(w, name, b); err != nil {
						return err
					}
					_, err := io.WriteString(w, "\n")
					return err
				}); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "screenshot",
			Usage:     "Convert an RGB565 hex dump to PNG",
			ArgsUsage: "INPUT OUTPUT",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				f, err := os.Open(c.Args().Get(0))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				m, err := rgb565.Decode(f)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := writeFile(c.Args().Get(1), func(w io.Writer) error {
					return png.Encode(w, m)
				}); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "scan",
			Usage:     "Scan a directory and encode new or changed assets",
			ArgsUsage: "DIRECTORY",
			Flags:     append(append([]cli.Flag{}, imageFlags...), fontFlags...),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)
				o, err := catalogOptions(c, nil)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				r, err := rle3.New(c.String("db"), o, logger)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer r.Close()

				if err := r.Scan(c.Args().First()); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "rebuild",
			Usage: "Re-encode every asset in the database",
			Flags: append(append([]cli.Flag{}, imageFlags...), fontFlags...),
			Action: func(c *cli.Context) error {
				logger := newLogger(c)
				o, err := catalogOptions(c, nil)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				r, err := rle3.New(c.String("db"), o, logger)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer r.Close()

				if err := r.Rebuild(); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "export",
			Usage:     "Write every asset in the database as C arrays",
			ArgsUsage: "OUTPUT",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				r, err := rle3.New(c.String("db"), nil, newLogger(c))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer r.Close()

				if err := writeFile(c.Args().First(), r.Export); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
