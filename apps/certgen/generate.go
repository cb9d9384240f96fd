package main

import (
	"context"
	"fmt"

	"github.com/trezcool/masomo-certs/core/certificate"
)

// generate draws & stores a certificate, then prints its ID.
func (cli *commandLine) generate(f certificate.Fields) error {
	if _, err := cli.svc.Generate(context.Background(), f); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, f.CertificateID)
	return nil
}
