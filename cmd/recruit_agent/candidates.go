package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCandidateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidate <id>",
		Short: "Show a candidate profile",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = withRuntime(root, func(cmd *cobra.Command, args []string, rt *runtime) error {
		store := rt.newStore()
		c, err := store.Candidate(cmd.Context(), args[0])
		if err != nil {
			rt.printer.PrintNotice(store.Snapshot().Notice)
			return err
		}
		rt.printer.PrintCandidate(c)
		return nil
	})
	return cmd
}

func newUnlockCmd(root *rootOptions) *cobra.Command {
	var query string
	var page int

	cmd := &cobra.Command{
		Use:   "unlock <id>",
		Short: "Reveal a candidate's contact details",
		Long: `Reveal a candidate's contact details. This spends credits.

With --query the search is run first and the candidate must appear on the
requested page; without it the unlock is sent directly.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.RunE = withRuntime(root, func(cmd *cobra.Command, args []string, rt *runtime) error {
		id := args[0]
		if strings.TrimSpace(query) == "" {
			resp, err := rt.client.Unlock(cmd.Context(), id)
			if err != nil {
				return err
			}
			rt.printer.PrintContact(id, resp.ContactInfo, resp.CreditsRemaining)
			return nil
		}

		store := rt.newStore()
		ctx := cmd.Context()
		snap := store.Snapshot()
		if err := store.SubmitSearch(ctx, query, snap.Filters, page); err != nil {
			rt.printer.PrintNotice(store.Snapshot().Notice)
			return err
		}
		info, err := store.UnlockContact(ctx, id)
		if err != nil {
			rt.printer.PrintNotice(store.Snapshot().Notice)
			return err
		}
		rt.logger.Debug("unlocked through session", zap.String("candidate", id), zap.Int("credits", store.Credits()))
		credits := store.Credits()
		rt.printer.PrintContact(id, info, &credits)
		return nil
	})

	cmd.Flags().StringVarP(&query, "query", "q", "", "Search that surfaced the candidate")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Result page of the search")
	return cmd
}

func newShortlistCmd(root *rootOptions) *cobra.Command {
	var unlike bool

	cmd := &cobra.Command{
		Use:   "shortlist <id>",
		Short: "Like or unlike a candidate",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = withRuntime(root, func(cmd *cobra.Command, args []string, rt *runtime) error {
		store := rt.newStore()
		if err := store.Shortlist(cmd.Context(), args[0], !unlike); err != nil {
			rt.printer.PrintNotice(store.Snapshot().Notice)
			return err
		}
		verb := "Shortlisted"
		if unlike {
			verb = "Unliked"
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s.\n", verb, args[0])
		return nil
	})
	cmd.Flags().BoolVar(&unlike, "unlike", false, "Record a dislike instead")
	return cmd
}

func newShortlistedCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shortlisted",
		Short: "List shortlisted candidates",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = withRuntime(root, func(cmd *cobra.Command, args []string, rt *runtime) error {
		store := rt.newStore()
		list, err := store.Shortlisted(cmd.Context())
		if err != nil {
			rt.printer.PrintNotice(store.Snapshot().Notice)
			return err
		}
		rt.printer.PrintShortlisted(list)
		return nil
	})
	return cmd
}
