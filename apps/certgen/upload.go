package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/trezcool/masomo-certs/core/certificate"
)

// upload sends one certificate and prints the backend response.
func (cli *commandLine) upload(id string) error {
	result, err := cli.svc.Upload(context.Background(), id)
	if err != nil {
		return err
	}
	return cli.printJSON(result)
}

// uploadAll sends every stored certificate and prints one outcome per line.
// It fails when any upload failed.
func (cli *commandLine) uploadAll(concurrency int) error {
	outcomes, err := cli.svc.UploadAll(context.Background(), concurrency)
	if err != nil {
		return err
	}

	var failed int
	for _, out := range outcomes {
		if out.Error != "" {
			failed++
			fmt.Fprintf(cli.out, "%s: FAILED: %s\n", out.ID, out.Error)
			continue
		}
		fmt.Fprintf(cli.out, "%s: uploaded\n", out.ID)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed: %w", failed, len(outcomes), certificate.ErrUploadFailed)
	}
	fmt.Fprintf(cli.out, "%d certificate(s) uploaded\n", len(outcomes))
	return nil
}

func (cli *commandLine) printJSON(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
