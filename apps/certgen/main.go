package main

import (
	"fmt"
	"log"
	"os"

	"github.com/trezcool/masomo-certs/apps/shared"
	"github.com/trezcool/masomo-certs/core"
	logsvc "github.com/trezcool/masomo-certs/services/logger"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "CERTGEN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer appLogger.Close()

	svc, closeStore, err := shared.NewPipeline(conf, appLogger, nil)
	errAndDie(err)

	// start CLI
	cli := commandLine{
		svc:       svc,
		out:       os.Stdout,
		exportDir: conf.Export.Dir,
	}
	err = cli.run(os.Args)
	if cErr := closeStore(); cErr != nil {
		logger.Printf("closing local storage: %v", cErr)
	}
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		appLogger.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
