package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/trezcool/masomo-certs/core/certificate"
)

var errTerminalOutput = errors.New("refusing to write a PDF document to a terminal; redirect the output or use -o DIR")

// writerSink streams exported documents to w.
type writerSink struct {
	w io.Writer
}

func (s writerSink) SaveDocument(_ string, content []byte) error {
	_, err := s.w.Write(content)
	return err
}

// export saves a certificate document into dir, or to the CLI output when dir is "-".
func (cli *commandLine) export(id, dir string) error {
	ctx := context.Background()
	if dir == "-" {
		if stdoutIsTerminal(cli.out) {
			return errTerminalOutput
		}
		return cli.svc.ExportDocument(ctx, id, writerSink{w: cli.out})
	}

	if err := cli.svc.ExportDocument(ctx, id, certificate.DirSink{Dir: dir}); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, filepath.Join(dir, certificate.DocumentName(id)))
	return nil
}
