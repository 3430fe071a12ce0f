package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"vmp-edtech-backend/internal/apiclient"
	"vmp-edtech-backend/internal/domain"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	client *apiclient.Client
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  progress -course ID    - module statuses of an enrollment (token from VMP_TOKEN)")
	fmt.Fprintln(cli.out, "  validate -code NUMBER  - check a credential number")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	progressCmd := flag.NewFlagSet("progress", flag.ContinueOnError)
	progressCmd.SetOutput(cli.out)
	progressCourse := progressCmd.Uint("course", 0, "The course id.")

	validateCmd := flag.NewFlagSet("validate", flag.ContinueOnError)
	validateCmd.SetOutput(cli.out)
	validateCode := validateCmd.String("code", "", "The credential number, e.g. VMP-2026-00001.")

	switch args[1] {
	case "progress":
		if err := progressCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *progressCourse == 0 {
			progressCmd.Usage()
			return errHelp
		}
		return cli.progress(ctx, *progressCourse)
	case "validate":
		if err := validateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *validateCode == "" {
			validateCmd.Usage()
			return errHelp
		}
		return cli.validate(ctx, *validateCode)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) progress(ctx context.Context, courseID uint) error {
	p, err := cli.client.Progress(ctx, courseID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "Curso %d: %d%% (%s)\n", courseID, p.Percentage, p.Enrollment.Status)
	for _, m := range p.Modules {
		fmt.Fprintf(cli.out, "  %2d. %-12s %-8s %s\n", m.Order, m.Status, m.Kind, m.Title)
	}
	if p.Next != nil {
		fmt.Fprintf(cli.out, "Próximo: %s\n", p.Next.Title)
	}
	return nil
}

func (cli *commandLine) validate(ctx context.Context, code string) error {
	res, err := cli.client.ValidateCredential(ctx, code)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%s: %s\n", code, res.Message)
	if c := res.Credential; c != nil {
		fmt.Fprintf(cli.out, "  %s %s - %s\n", c.Student.FirstName, c.Student.LastName, c.Course.Name)
		fmt.Fprintf(cli.out, "  emitida %s", c.IssuedAt.Format("2006-01-02"))
		if c.ExpiresAt != nil {
			fmt.Fprintf(cli.out, ", vence %s", c.ExpiresAt.Format("2006-01-02"))
		}
		fmt.Fprintln(cli.out)
	}
	if res.Status != domain.CredentialValid {
		return fmt.Errorf("credential %s is %s", code, res.Status)
	}
	return nil
}

func main() {
	baseURL := os.Getenv("VMP_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080/api"
	}
	cli := &commandLine{
		client: apiclient.New(baseURL, apiclient.WithToken(os.Getenv("VMP_TOKEN")), apiclient.WithTimeout(15*time.Second)),
		out:    os.Stdout,
	}

	if err := cli.run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errHelp) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
