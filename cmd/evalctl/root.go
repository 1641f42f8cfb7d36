package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"appraisal/pkg/client"
)

type cli struct {
	server      string
	sessionPath string

	session *client.Session
	api     *client.Client
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "evalctl",
		Short:         "Manage evaluation matrices and cycles from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open()
		},
	}
	root.PersistentFlags().StringVar(&c.server, "server", os.Getenv("EVALCTL_SERVER"), "API base URL")
	root.PersistentFlags().StringVar(&c.sessionPath, "session", os.Getenv("EVALCTL_SESSION"), "session file path")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.parametersCmd(),
		c.matricesCmd(),
		c.cyclesCmd(),
	)
	return root
}

func (c *cli) open() error {
	path := c.sessionPath
	if path == "" {
		var err error
		if path, err = client.DefaultSessionPath(); err != nil {
			return err
		}
	}
	session, err := client.LoadSession(path)
	if err != nil {
		return err
	}
	if c.server != "" {
		session.BaseURL = c.server
	}
	if session.BaseURL == "" {
		session.BaseURL = "http://localhost:8080"
	}
	c.session = session
	c.api = client.New(session)
	return nil
}

// persist writes the session back so a 401 clear survives the process.
func (c *cli) persist(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		if saveErr := c.session.Save(); saveErr != nil {
			return errors.Join(err, saveErr)
		}
	}
	return err
}

func (c *cli) requireLogin() error {
	if !c.session.LoggedIn() {
		return fmt.Errorf("not logged in, run evalctl login")
	}
	return nil
}

func table(out io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// parseWeights reads id=weightage pairs.
func parseWeights(args []string) ([]client.Weight, error) {
	weights := make([]client.Weight, 0, len(args))
	for _, arg := range args {
		id, raw, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("expected parameterId=weightage, got %q", arg)
		}
		value, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("weightage for %s: %w", id, err)
		}
		weights = append(weights, client.Weight{ParameterID: strings.TrimSpace(id), Weightage: value})
	}
	return weights, nil
}
