package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"docextra/internal"
	"docextra/pkg/cfb"
	_ "docextra/pkg/compressfile"
	"docextra/pkg/logger"
	"docextra/pkg/office"
	"docextra/pkg/office/doc"
)

var (
	InputFile     string
	FileType      int
	Verbose       bool
	DetailVerbose bool
	Start         int64
	Count         int
	CodePage      string
	Detect        bool
	List          bool
	Meta          bool
)

func main() {
	flag.StringVar(&InputFile, "i", "", "input file")
	flag.IntVar(&FileType, "t", 0, "file type")
	flag.BoolVar(&Verbose, "v", false, "verbose")
	flag.BoolVar(&DetailVerbose, "vv", false, "detail verbose")
	flag.Int64Var(&Start, "s", 0, "first character to extract (.doc only)")
	flag.IntVar(&Count, "n", -1, "number of characters to extract, -1 for all (.doc only)")
	flag.StringVar(&CodePage, "cp", "", "code page of compressed text, e.g. windows-1251")
	flag.BoolVar(&Detect, "detect", false, "detect the code page of compressed text")
	flag.BoolVar(&List, "l", false, "list compound file entries (.doc only)")
	flag.BoolVar(&Meta, "meta", false, "print summary information (.doc only)")

	flag.Parse()
	if InputFile == "" {
		flag.Usage()
		return
	}

	if DetailVerbose {
		logger.SetLogger(log.New(os.Stdout, "[docextra] ", log.LstdFlags))
		logger.SetDebugLogger(log.New(os.Stdout, "[docextra debug] ", log.LstdFlags))
	} else if Verbose {
		logger.SetLogger(log.New(os.Stdout, "[docextra] ", log.LstdFlags))
		logger.SetDebugLogger(log.New(io.Discard, "", 0))
	}

	var opts []doc.Option
	if CodePage != "" {
		opts = append(opts, doc.WithCodePageName(CodePage))
	}
	if Detect {
		opts = append(opts, doc.WithCharsetDetection(true))
	}
	office.SetDocOptions(opts...)

	if FileType == 0 {
		FileType = internal.GetDynamicFileType(InputFile)
	}

	var err error
	if FileType == internal.FileTypeDOC && (List || Meta || Start != 0 || Count >= 0) {
		err = inspect(opts)
	} else {
		err = extract()
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func extract() error {
	parser, err := internal.GetParser(FileType)
	if err != nil {
		return err
	}

	text, err := parser.Parse(InputFile)
	if err != nil {
		return err
	}

	logger.Logger.Printf("file[%s], size[%d]", InputFile, len(text))
	_, err = os.Stdout.Write(text)
	return err
}

func inspect(opts []doc.Option) error {
	d, err := doc.Open(InputFile, opts...)
	if err != nil {
		return err
	}
	defer d.Close()

	if List {
		err := d.Container().Walk(func(path []string, e *cfb.DirectoryEntry) error {
			name := e.Name
			if len(path) > 0 {
				name = strings.Join(path, "/") + "/" + name
			}
			fmt.Printf("%-8s %10d  %q\n", e.Type, e.Size, name)
			return nil
		})
		if err != nil {
			return err
		}
	}

	if Meta {
		props, err := d.Summary()
		if err != nil {
			return err
		}
		for _, p := range props {
			fmt.Printf("%s: %s\n", p.Name, p.Value)
		}
	}

	if List || Meta {
		return nil
	}

	if _, err := d.Seek(Start, io.SeekStart); err != nil {
		return err
	}
	n := Count
	if n < 0 {
		n = int(d.Len() - d.Tell())
	}
	text, err := d.ReadChars(n)
	if err != nil {
		return err
	}
	logger.Logger.Printf("file[%s], chars[%d..%d) of %d", InputFile, Start, d.Tell(), d.Len())
	_, err = os.Stdout.Write(text)
	return err
}
