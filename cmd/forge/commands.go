package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ganot/appforge/internal/domain/credential"
	"github.com/ganot/appforge/internal/domain/generation"
	"github.com/ganot/appforge/internal/domain/project"
	"github.com/ganot/appforge/internal/domain/workspace"
	"github.com/ganot/appforge/internal/identity"
	"github.com/ganot/appforge/internal/terminal"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// cliWorkspace names the workspace every forge invocation uses.
const cliWorkspace = "cli"

func newKeyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage AI provider keys",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <provider> <key>",
		Short: "Store the key for openai, anthropic or grok",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := credential.ParseProvider(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}
			if err := c.app.Credentials.Set(cmd.Context(), p, args[1]); err != nil {
				return err
			}
			printf(cmd, "%s key saved\n", p)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show which providers have a key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses, err := c.app.Credentials.Statuses(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tKEY")
			for _, s := range statuses {
				masked := "-"
				if s.Present {
					masked = s.Masked
				}
				fmt.Fprintf(w, "%s\t%s\n", s.Provider, masked)
			}
			return w.Flush()
		},
	})
	return cmd
}

func newTokenCmd(c *cli) *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens for the HTTP server",
	}
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a bearer token for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token := "af_" + strings.ReplaceAll(uuid.NewString(), "-", "")
			resolver := identity.NewAPIKeyResolver(c.app.DB.DB)
			if err := resolver.Register(cmd.Context(), token, identity.Identity{Email: email, Name: name}); err != nil {
				return err
			}
			printf(cmd, "%s\n", token)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "account email")
	create.Flags().StringVar(&name, "name", "", "display name")
	_ = create.MarkFlagRequired("email")
	cmd.AddCommand(create)
	return cmd
}

func newProjectCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}

	var language string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := c.app.Projects.Create(cmd.Context(), c.ownerID(), project.CreateRequest{
				Name:     args[0],
				Language: project.Language(language),
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", proj.ID)
			return nil
		},
	}
	create.Flags().StringVar(&language, "language", "", "web3, ai or fullstack")

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, err := c.app.Projects.List(cmd.Context(), c.ownerID())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tLANGUAGE\tMESSAGES\tUPDATED")
			for i := range projects {
				s := projects[i].Summary()
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Language, s.MessageCount, s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a project as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := c.app.Projects.Resolve(cmd.Context(), c.ownerID(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, proj)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Projects.Delete(cmd.Context(), c.ownerID(), args[0])
		},
	}

	cmd.AddCommand(create, list, show, del)
	return cmd
}

// activate opens projectID, if any, in the CLI workspace.
func (c *cli) activate(cmd *cobra.Command, projectID string) (*workspace.Coordinator, error) {
	coord := c.app.Workspaces.Acquire(c.ownerID(), cliWorkspace)
	if _, err := coord.Open(cmd.Context(), projectID); err != nil {
		return nil, err
	}
	return coord, nil
}

func newGenerateCmd(c *cli) *cobra.Command {
	var providerName, projectID, language string
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate code; with --project the result is saved to the project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := credential.ParseProvider(providerName)
			if err != nil {
				return fmt.Errorf("%w: %q", err, providerName)
			}
			coord, err := c.activate(cmd, projectID)
			if err != nil {
				return err
			}
			outcome, err := coord.Generate(cmd.Context(), workspace.GenerateInput{
				Mode:     generation.ModeGenerate,
				Provider: p,
				Prompt:   strings.Join(args, " "),
				Language: language,
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", outcome.Code)
			if outcome.SetupInstructions != "" {
				printf(cmd, "\n# Setup\n%s\n", outcome.SetupInstructions)
			}
			if outcome.Explanation != "" {
				printf(cmd, "\n# Explanation\n%s\n", outcome.Explanation)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&providerName, "provider", "p", "openai", "openai, anthropic or grok")
	cmd.Flags().StringVar(&projectID, "project", "", "project to save the result to")
	cmd.Flags().StringVar(&language, "language", "", "web3, ai or fullstack")
	return cmd
}

func newChatCmd(c *cli) *cobra.Command {
	var providerName, projectID string
	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a chat message about a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := credential.ParseProvider(providerName)
			if err != nil {
				return fmt.Errorf("%w: %q", err, providerName)
			}
			coord, err := c.activate(cmd, projectID)
			if err != nil {
				return err
			}
			reply, err := coord.SendChat(cmd.Context(), p, strings.Join(args, " "), nil)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", reply.Assistant.Content)
			if reply.Code != "" {
				printf(cmd, "\n(project code updated)\n")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&providerName, "provider", "p", "openai", "openai, anthropic or grok")
	cmd.Flags().StringVar(&projectID, "project", "", "project to chat about")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newHistoryCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recent generations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := c.app.History.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tWHEN\tLANGUAGE\tPROMPT")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Timestamp.Format("2006-01-02 15:04"), e.Language, truncate(e.Prompt, 60))
			}
			return w.Flush()
		},
	}
}

func newTerminalCmd(_ *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "terminal <command>",
		Short: "Run a simulated terminal command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := terminal.Interpret(strings.Join(args, " "))
			for _, line := range res.Lines {
				printf(cmd, "%s\n", line.Content)
			}
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
