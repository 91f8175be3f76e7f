// Command pdfgen renders a Markdown or HTML file into a PDF.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/pdfstream/document"
	"github.com/wudi/pdfstream/layout"
	"github.com/wudi/pdfstream/security"
)

type options struct {
	inPath  string
	outPath string
	format  string

	version  string
	size     string
	lands    bool
	title    string
	author   string
	compress bool

	userPassword  string
	ownerPassword string
	aes256        bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfgen: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "pdfgen: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: pdfgen [flags] <input.md|input.html>\n")
		flag.PrintDefaults()
	}
	out := flag.String("o", "", "Output path (default: input name with .pdf)")
	format := flag.String("format", "", "Input format, md or html (default: from extension)")
	version := flag.String("pdf-version", "1.4", "PDF version for the file header")
	size := flag.String("size", "letter", "Page size, e.g. letter or a4")
	landscape := flag.Bool("landscape", false, "Landscape orientation")
	title := flag.String("title", "", "Document title")
	author := flag.String("author", "", "Document author")
	compress := flag.Bool("compress", true, "Deflate content streams")
	userPwd := flag.String("user-password", "", "Encrypt with this user password")
	ownerPwd := flag.String("owner-password", "", "Owner password (defaults to the user password)")
	aes256 := flag.Bool("aes256", false, "Use AES-256 encryption instead of the version default")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return options{}, fmt.Errorf("missing input path")
	}
	opts.inPath = flag.Arg(0)
	opts.outPath = *out
	if opts.outPath == "" {
		ext := filepath.Ext(opts.inPath)
		opts.outPath = strings.TrimSuffix(opts.inPath, ext) + ".pdf"
	}
	opts.format = *format
	if opts.format == "" {
		switch strings.ToLower(filepath.Ext(opts.inPath)) {
		case ".html", ".htm":
			opts.format = "html"
		default:
			opts.format = "md"
		}
	}
	if opts.format != "md" && opts.format != "html" {
		return options{}, fmt.Errorf("unknown format %q", opts.format)
	}
	opts.version = *version
	opts.size = *size
	opts.lands = *landscape
	opts.title = *title
	opts.author = *author
	opts.compress = *compress
	opts.userPassword = *userPwd
	opts.ownerPassword = *ownerPwd
	opts.aes256 = *aes256
	return opts, nil
}

func run(opts options) error {
	src, err := os.ReadFile(opts.inPath)
	if err != nil {
		return err
	}

	docOpts := document.DefaultOptions()
	docOpts.Version = opts.version
	docOpts.Compress = opts.compress
	docOpts.Page.Size = opts.size
	if opts.lands {
		docOpts.Page.Layout = "landscape"
	}
	docOpts.Info.Title = opts.title
	docOpts.Info.Author = opts.author
	if opts.userPassword != "" || opts.ownerPassword != "" {
		docOpts.Security = &security.Options{
			UserPassword:  opts.userPassword,
			OwnerPassword: opts.ownerPassword,
			AES256:        opts.aes256,
			Permissions: security.Permissions{
				Print:            true,
				Copy:             true,
				PrintHighQuality: true,
			},
		}
	}

	return document.WriteFile(opts.outPath, &docOpts, func(doc *document.Document) error {
		engine := layout.New(doc, nil)
		if opts.format == "html" {
			return engine.RenderHTML(strings.NewReader(string(src)))
		}
		return engine.RenderMarkdown(src)
	})
}
