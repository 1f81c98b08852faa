package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruit-search/internal/schemas"
)

const schemaSuffix = ".schema.json"

func newValidateCmd() *cobra.Command {
	var schemaName, jsonFile string

	cmd := &cobra.Command{
		Use:     "validate-response",
		Short:   "Validate a saved API response against its JSON schema",
		Example: `  recruit_agent validate-response --schema search_response --json response.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := schemaName
			if !strings.HasSuffix(name, schemaSuffix) {
				name += schemaSuffix
			}

			err := schemas.Default().ValidateFile(name, jsonFile)
			var verr *schemas.ValidationError
			if errors.As(err, &verr) {
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "%s does not match %s:\n", jsonFile, name)
				for _, fe := range verr.Errors {
					_, _ = fmt.Fprintf(out, "  - %s: %s\n", fe.Field, fe.Message)
				}
				return fmt.Errorf("validation failed with %d error(s)", len(verr.Errors))
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid against %s\n", jsonFile, name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Schema name, e.g. search_response or candidate")
	cmd.Flags().StringVarP(&jsonFile, "json", "j", "", "Path to the JSON document")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("json")
	return cmd
}
