package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/github-users/internal/service"
	"github.com/sakif/github-users/internal/viewmodel"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	var (
		asJSON bool
		cached bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch the users once and print them",
		Long: `Runs one fetch and prints the state it ends in: one login per line,
or the state as JSON with --json. A failed fetch exits non-zero.

With --cached nothing is fetched: the listing stored by the last successful
fetch is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(flags, os.Stderr)
			if err != nil {
				return err
			}
			defer closeApp(a)

			if cached {
				return printCached(cmd, a.Service, limit, asJSON)
			}

			state, err := fetchOnce(cmd, a.Users)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(viewmodel.ToView(state)); err != nil {
					return err
				}
			} else if s, ok := state.(viewmodel.Success); ok {
				for _, u := range s.Data {
					fmt.Fprintln(out, u.Login)
				}
			}

			if f, ok := state.(viewmodel.Failure); ok {
				return errors.New(f.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the final state as JSON")
	cmd.Flags().BoolVar(&cached, "cached", false, "print the cached listing instead of fetching")
	cmd.Flags().IntVar(&limit, "limit", service.DefaultListLimit, "maximum cached users to print")
	return cmd
}

// printCached prints the cached listing: logins, or the users as JSON.
func printCached(cmd *cobra.Command, svc *service.UserService, limit int, asJSON bool) error {
	users, err := svc.CachedUsers(cmd.Context(), limit, 0)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	}
	for _, u := range users {
		fmt.Fprintln(out, u.Login)
	}
	return nil
}

// fetchOnce starts a fetch and returns the terminal state it produced.
// The subscription is taken first, so it sees the initial state, then
// Loading, then the outcome.
func fetchOnce(cmd *cobra.Command, vm *viewmodel.UsersViewModel) (viewmodel.UsersState, error) {
	sub := vm.Users()
	defer sub.Close()

	vm.Fetch()

	started := false
	for {
		s, err := sub.Next(cmd.Context())
		if err != nil {
			return nil, err
		}
		if _, ok := s.(viewmodel.Loading); ok {
			started = true
			continue
		}
		if started {
			return s, nil
		}
	}
}
