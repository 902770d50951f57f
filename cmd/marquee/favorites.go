package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/marquee/internal/domain"
	"github.com/mmcdole/marquee/internal/search"
)

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage favorite movies",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorite movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				items, skipped, err := a.history.Items(ctx, domain.HistoryFavorite)
				if err != nil {
					return err
				}
				if len(skipped) > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d unreadable records: %s\n", len(skipped), strings.Join(skipped, ", "))
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No favorites yet")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), movieTable(items))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <id or title>",
		Short: "Find a movie in the catalog and mark it as favorite",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				movie, err := findMovie(ctx, a, term)
				if err != nil {
					return err
				}
				if err := a.history.SetFavorite(ctx, movie, true); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) to favorites\n", movie.Title, movie.ID)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a movie from the favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.history.Remove(ctx, domain.HistoryFavorite, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites\n", args[0])
				return nil
			})
		},
	})

	return cmd
}

// withApp builds the app for one command and tears it down afterwards
func withApp(cmd *cobra.Command, fn func(context.Context, *app) error) error {
	a, err := newApp(flagConfigPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := shutdownContext(cmd.Context(), a.logger)
	defer stop()
	return fn(ctx, a)
}

// findMovie searches the catalog for term and picks the movie whose id equals
// term, falling back to the closest title.
func findMovie(ctx context.Context, a *app, term string) (*domain.Movie, error) {
	page, err := a.client.FetchPage(ctx, domain.PageRequest{
		Page:     1,
		PageSize: a.cfg.Browse.PageSize(),
		Sort:     domain.SortDateAdded,
		Criteria: domain.Criteria{Query: term},
	})
	if err != nil {
		return nil, err
	}

	for _, m := range page.Items {
		if m.ID == term {
			return m, nil
		}
	}
	if ranked := search.Rank(term, page.Items); len(ranked) > 0 {
		return ranked[0], nil
	}
	return nil, fmt.Errorf("%w: no movie matches %q", domain.ErrItemNotFound, term)
}
