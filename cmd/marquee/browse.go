package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mmcdole/marquee/internal/domain"
	"github.com/mmcdole/marquee/internal/search"
)

type browseOptions struct {
	view      string
	pages     int
	genre     string
	minRating float64
	language  string
	search    string // Server-side search term
	query     string // Local ranking of the loaded titles

	// Which criteria flags were given explicitly
	setGenre, setRating, setLanguage, setSearch bool
}

func newBrowseCmd() *cobra.Command {
	var opts browseOptions

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Print pages of a view",
		Long: `Load pages of a view and print them as a table.

Catalog views (recent, greatest, popular) honor the filter flags; the history
views (favorites, seen) list everything that is flagged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			opts.setGenre = flags.Changed("genre")
			opts.setRating = flags.Changed("min-rating")
			opts.setLanguage = flags.Changed("language")
			opts.setSearch = flags.Changed("search")

			a, err := newApp(flagConfigPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := shutdownContext(cmd.Context(), a.logger)
			defer stop()
			return runBrowse(ctx, a, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.view, "view", "", "view to print (recent, greatest, popular, favorites, seen)")
	cmd.Flags().IntVar(&opts.pages, "pages", 1, "number of pages to load")
	cmd.Flags().StringVar(&opts.genre, "genre", "", "only movies of this genre")
	cmd.Flags().Float64Var(&opts.minRating, "min-rating", 0, "minimum rating (0-9)")
	cmd.Flags().StringVar(&opts.language, "language", "", "original language, e.g. en or fr")
	cmd.Flags().StringVar(&opts.search, "search", "", "server-side title search")
	cmd.Flags().StringVar(&opts.query, "query", "", "fuzzy-rank the loaded titles locally")

	return cmd
}

// runBrowse loads opts.pages pages of a view through the engine and prints them.
func runBrowse(ctx context.Context, a *app, out, errOut io.Writer, opts browseOptions) error {
	if err := applyCriteria(a, opts); err != nil {
		return err
	}

	engine, err := a.openEngine(ctx)
	if err != nil {
		return err
	}

	id := domain.ViewID(opts.view)
	if id == "" {
		id = a.defaultView()
	}
	if _, err := engine.View(id); err != nil {
		return fmt.Errorf("unknown view %q (choose from %s)", id, joinViews(engine.Views()))
	}

	pages := max(opts.pages, 1)
	bar := newPageBar(errOut, pages, string(id))
	for range pages {
		if err := engine.LoadNextPage(ctx, id); err != nil {
			if errors.Is(err, domain.ErrTransport) {
				return fmt.Errorf("catalog unavailable: %w", err)
			}
			return err
		}
		_ = bar.Add(1)

		state, err := engine.State(id)
		if err != nil {
			return err
		}
		if state.TotalCount == 0 || state.CurrentCount >= state.TotalCount {
			break
		}
	}
	_ = bar.Finish()

	state, err := engine.State(id)
	if err != nil {
		return err
	}
	items := state.Items
	if opts.query != "" {
		items = search.Rank(opts.query, items)
	}

	if len(items) == 0 {
		fmt.Fprintf(out, "No movies in %s\n", state.Title)
		return nil
	}
	fmt.Fprintln(out, movieTable(items))
	fmt.Fprintf(out, "%s: %d of %d\n", state.Title, len(items), state.TotalCount)
	return nil
}

// applyCriteria layers the explicit flags over the configured filters
func applyCriteria(a *app, opts browseOptions) error {
	c := a.filters.Current()
	if opts.setGenre {
		c.Genre = opts.genre
	}
	if opts.setRating {
		c.MinRating = opts.minRating
	}
	if opts.setLanguage {
		c.Language = opts.language
	}
	if opts.setSearch {
		c.Query = opts.search
	}
	if err := a.filters.Apply(c); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	return nil
}

// newPageBar shows page progress on a terminal and stays silent otherwise
func newPageBar(w io.Writer, pages int, view string) *progressbar.ProgressBar {
	if pages < 2 || !isTerminal(w) {
		return progressbar.DefaultSilent(int64(pages))
	}
	return progressbar.NewOptions(pages,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("loading "+view),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

func movieTable(items []*domain.Movie) string {
	rows := make([][]string, len(items))
	for i, m := range items {
		year := ""
		if m.Year > 0 {
			year = strconv.Itoa(m.Year)
		}
		rows[i] = []string{
			m.ID,
			m.Title,
			year,
			fmt.Sprintf("%.1f", m.Rating),
			m.GenreList(),
			flags(m),
		}
	}

	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("ID", "TITLE", "YEAR", "RATING", "GENRES", "").
		Rows(rows...).
		String()
}

// flags renders the history markers of a movie
func flags(m *domain.Movie) string {
	var marks []string
	if m.IsFavorite {
		marks = append(marks, "favorite")
	}
	if m.HasBeenSeen {
		marks = append(marks, "seen")
	}
	return strings.Join(marks, ",")
}

func joinViews(ids []domain.ViewID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}
