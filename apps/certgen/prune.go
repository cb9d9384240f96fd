package main

import (
	"context"
	"fmt"
	"time"
)

// prune removes certificates that were never uploaded.
func (cli *commandLine) prune(olderThan time.Duration) error {
	removed, err := cli.svc.Prune(context.Background(), olderThan)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d local storage entries removed\n", removed)
	return nil
}
