package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"appraisal/pkg/client"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}
			user, err := c.api.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := c.session.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password, prompted when empty")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and clear the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := c.api.Auth.Logout(cmd.Context())
			if saveErr := c.session.Save(); saveErr != nil {
				return saveErr
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "server logout failed: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func (c *cli) parametersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "parameters", Short: "Parameter library"}

	var query, category, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List library parameters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			params, err := c.api.Parameters.List(cmd.Context(), client.ParameterQuery{Query: query, Category: category, Status: status})
			if err != nil {
				return c.persist(err)
			}
			rows := make([][]string, 0, len(params))
			for _, p := range params {
				rows = append(rows, []string{p.ID, p.Name, p.Category, p.Status})
			}
			return table(cmd.OutOrStdout(), []string{"ID", "NAME", "CATEGORY", "STATUS"}, rows)
		},
	}
	list.Flags().StringVar(&query, "q", "", "name search")
	list.Flags().StringVar(&category, "category", "", "category filter")
	list.Flags().StringVar(&status, "status", "", "active or inactive")

	cmd.AddCommand(list)
	return cmd
}

func (c *cli) matricesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "matrices", Short: "Evaluation matrices"}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List matrices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			matrices, err := c.api.Matrices.List(cmd.Context(), status)
			if err != nil {
				return c.persist(err)
			}
			rows := make([][]string, 0, len(matrices))
			for _, m := range matrices {
				rows = append(rows, []string{m.ID, m.Name, m.Status, strconv.Itoa(m.TotalWeightage) + "%"})
			}
			return table(cmd.OutOrStdout(), []string{"ID", "NAME", "STATUS", "TOTAL"}, rows)
		},
	}
	list.Flags().StringVar(&status, "status", "", "draft or active")

	get := &cobra.Command{
		Use:   "get <matrix-id>",
		Short: "Show one matrix with its weightages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			m, err := c.api.Matrices.Get(cmd.Context(), args[0])
			if err != nil {
				return c.persist(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) total %d%%\n", m.Name, m.Status, m.TotalWeightage)
			rows := make([][]string, 0, len(m.Parameters))
			for _, p := range m.Parameters {
				rows = append(rows, []string{p.ParameterID, p.Name, p.Category, strconv.Itoa(p.Weightage)})
			}
			return table(cmd.OutOrStdout(), []string{"PARAMETER", "NAME", "CATEGORY", "WEIGHTAGE"}, rows)
		},
	}

	activate := &cobra.Command{
		Use:   "activate <matrix-id>",
		Short: "Activate a draft whose weightages sum to 100",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			m, err := c.api.Matrices.Activate(cmd.Context(), args[0])
			if err != nil {
				return c.persist(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", m.Name, m.Status)
			return nil
		},
	}

	rescale := &cobra.Command{
		Use:   "rescale <parameterId=weightage>...",
		Short: "Preview weightages rescaled to a total of 100",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			weights, err := parseWeights(args)
			if err != nil {
				return err
			}
			out, err := c.api.Matrices.Rescale(cmd.Context(), weights)
			if err != nil {
				return c.persist(err)
			}
			rows := make([][]string, 0, len(out.Parameters))
			for _, w := range out.Parameters {
				rows = append(rows, []string{w.ParameterID, strconv.Itoa(w.Weightage)})
			}
			if err := table(cmd.OutOrStdout(), []string{"PARAMETER", "WEIGHTAGE"}, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total %d%%\n", out.TotalWeightage)
			return nil
		},
	}

	cmd.AddCommand(list, get, activate, rescale)
	return cmd
}

func (c *cli) cyclesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cycles", Short: "Evaluation cycles"}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List cycles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			cycles, err := c.api.Cycles.List(cmd.Context(), status)
			if err != nil {
				return c.persist(err)
			}
			rows := make([][]string, 0, len(cycles))
			for _, cy := range cycles {
				rows = append(rows, []string{
					cy.ID, cy.Name, cy.Status,
					cy.StartDate.Format("2006-01-02"), cy.EndDate.Format("2006-01-02"),
					strconv.Itoa(cy.AssignmentCount),
				})
			}
			return table(cmd.OutOrStdout(), []string{"ID", "NAME", "STATUS", "START", "END", "ASSIGNMENTS"}, rows)
		},
	}
	list.Flags().StringVar(&status, "status", "", "draft or active")

	activate := &cobra.Command{
		Use:   "activate <cycle-id>",
		Short: "Activate a draft cycle and notify its line managers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLogin(); err != nil {
				return err
			}
			cy, err := c.api.Cycles.Activate(cmd.Context(), args[0])
			if err != nil {
				return c.persist(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", cy.Name, cy.Status)
			return nil
		},
	}

	cmd.AddCommand(list, activate)
	return cmd
}
