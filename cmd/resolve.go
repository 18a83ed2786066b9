package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/domain-resolver/internal/batch"
	"github.com/sells-group/domain-resolver/internal/model"
)

var resolveQuery model.CompanyQuery

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a single company to its domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if !resolveQuery.Valid() {
			return eris.New("resolve: --name is required")
		}

		env, err := initResolver(ctx, "resolve")
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.Resolver.Resolve(ctx, resolveQuery)
		if env.Store != nil && batch.Cacheable(&res) {
			if err := env.Store.SaveResult(ctx, res); err != nil {
				return eris.Wrap(err, "resolve: save result")
			}
		}
		return printResult(os.Stdout, res)
	},
}

func init() {
	f := resolveCmd.Flags()
	f.StringVar(&resolveQuery.Name, "name", "", "company name (required)")
	f.StringVar(&resolveQuery.City, "city", "", "city the company operates in")
	f.StringVar(&resolveQuery.Phone, "phone", "", "known phone number")
	f.StringVar(&resolveQuery.Address, "address", "", "street address")
	f.StringVar(&resolveQuery.Context, "context", "", "industry or keywords describing the company")
	rootCmd.AddCommand(resolveCmd)
}

func printResult(w io.Writer, res model.ResolutionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
