package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the users pages, JSON API and event stream over HTTP",
		Long: `Starts the HTTP server on $PORT (default 8080). Usage:

	ghusers serve

POST /api/users/fetch requires a bearer token when JWT_SECRET is set.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(flags, os.Stdout)
			if err != nil {
				return err
			}
			defer closeApp(a)

			srv, err := a.Server()
			if err != nil {
				return err
			}
			return srv.Start(cmd.Context())
		},
	}
}
