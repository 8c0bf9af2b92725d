package main

import (
	"fmt"
	"github.com/myrjola/deduce/internal/errors"
	"github.com/spf13/cobra"
	"log/slog"
)

var contentGroup = &cobra.Group{
	ID:    "content",
	Title: "Authoring",
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{ //nolint:exhaustruct // cobra commands set only what they use
		Use:     "validate [case...]",
		GroupID: contentGroup.ID,
		Short:   "Check cases for broken references",
		Long:    "Loads every dialogue, evidence item, relation and progress rule of the cases and reports what does not fit together. Without arguments all cases are checked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			library := opts.library(logger)

			caseIDs := args
			if len(caseIDs) == 0 {
				if caseIDs, err = library.CaseIDs(ctx); err != nil {
					return errors.Wrap(err, "list cases")
				}
			}

			var failed []error
			for _, caseID := range caseIDs {
				if validateErr := library.Validate(ctx, caseID); validateErr != nil {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", caseID, validateErr)
					failed = append(failed, validateErr)
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", caseID)
			}
			if len(failed) > 0 {
				return errors.New("invalid cases", slog.Int("count", len(failed)))
			}
			return nil
		},
	}
}
