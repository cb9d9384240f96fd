package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/trezcool/masomo-certs/core"
	"github.com/trezcool/masomo-certs/core/certificate"
)

var (
	isTerminalFunc = term.IsTerminal // mockable
	newIDFunc      = uuid.NewString  // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	svc       *certificate.Service
	out       io.Writer
	exportDir string
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  generate [-name NAME] [-course COURSE] [-date DATE] [-id ID] [-link URL] - draw and store a certificate")
	fmt.Fprintln(cli.out, "  show -id ID [-png FILE] - print a stored certificate, optionally saving its image")
	fmt.Fprintln(cli.out, "  list - list stored certificates")
	fmt.Fprintln(cli.out, "  upload -id ID | -all [-concurrency N] - upload stored certificates, then remove them locally")
	fmt.Fprintln(cli.out, "  export -id ID [-o DIR|-] - save a certificate as a PDF document")
	fmt.Fprintln(cli.out, "  prune -older-than DURATION - remove certificates stored for longer than DURATION (eg. 720h)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
	generateName := generateCmd.String("name", "", "The student's name.")
	generateCourse := generateCmd.String("course", "", "The completed course.")
	generateDate := generateCmd.String("date", "", "The issue date. Defaults to today (YYYY-MM-DD).")
	generateID := generateCmd.String("id", "", "The certificate ID. Defaults to a new UUID.")
	generateLink := generateCmd.String("link", "", "The public verification link.")

	showCmd := flag.NewFlagSet("show", flag.ExitOnError)
	showID := showCmd.String("id", "", "The certificate ID.")
	showPNG := showCmd.String("png", "", "Also write the certificate image to this file.")

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	uploadCmd := flag.NewFlagSet("upload", flag.ExitOnError)
	uploadID := uploadCmd.String("id", "", "The certificate ID.")
	uploadAll := uploadCmd.Bool("all", false, "Upload every stored certificate.")
	uploadConcurrency := uploadCmd.Int("concurrency", 4, "Maximum simultaneous uploads with -all.")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportID := exportCmd.String("id", "", "The certificate ID.")
	exportOut := exportCmd.String("o", cli.exportDir, "Output directory, or - for standard output.")

	pruneCmd := flag.NewFlagSet("prune", flag.ExitOnError)
	pruneOlderThan := pruneCmd.Duration("older-than", 0, "Minimum storage age of removed certificates.")

	switch args[1] {
	case "generate":
		if err := generateCmd.Parse(args[2:]); err != nil {
			return err
		}
		f := certificate.Fields{
			UserName:      *generateName,
			CourseName:    *generateCourse,
			IssueDate:     *generateDate,
			CertificateID: *generateID,
			ShareLink:     *generateLink,
		}
		if core.CleanString(f.IssueDate) == "" {
			f.IssueDate = certificate.NowFunc().Format("2006-01-02")
		}
		if core.CleanString(f.CertificateID) == "" {
			f.CertificateID = newIDFunc()
		}
		if err := cli.generate(f); err != nil {
			if core.IsValidation(err) {
				generateCmd.Usage()
			}
			return err
		}
		return nil

	case "show":
		if err := showCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *showID == "" {
			showCmd.Usage()
			return errHelp
		}
		return cli.show(*showID, *showPNG)

	case "list":
		if err := listCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.list()

	case "upload":
		if err := uploadCmd.Parse(args[2:]); err != nil {
			return err
		}
		if (*uploadID == "") == !*uploadAll {
			uploadCmd.Usage()
			return errHelp
		}
		if *uploadAll {
			return cli.uploadAll(*uploadConcurrency)
		}
		return cli.upload(*uploadID)

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportID == "" || *exportOut == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(*exportID, *exportOut)

	case "prune":
		if err := pruneCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *pruneOlderThan <= 0 {
			pruneCmd.Usage()
			return errHelp
		}
		return cli.prune(*pruneOlderThan)

	default:
		cli.printUsage()
		return errHelp
	}
}

// stdoutIsTerminal reports whether binary output would end up on a terminal.
func stdoutIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminalFunc(int(f.Fd()))
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
