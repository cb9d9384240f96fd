package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-certs/core/certificate"
)

// show prints a stored certificate as JSON, without its image.
// The image is written to pngPath when set.
func (cli *commandLine) show(id, pngPath string) error {
	ctx := context.Background()
	rec, ok, err := cli.svc.Fetch(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return certificate.ErrNotFound
	}

	if pngPath != "" {
		img, err := cli.svc.Image(ctx, id)
		if err != nil {
			return err
		}
		if err = os.WriteFile(pngPath, img, 0o644); err != nil {
			return errors.Wrap(err, "writing certificate image")
		}
	}

	rec.Image = ""
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(rec)
}
