package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riverfold/feedlens/internal/core/domain"
)

var (
	searchLimit            int
	searchCategory         string
	searchFeed             string
	searchRerank           bool
	searchNoRerank         bool
	searchRerankModel      string
	searchRerankCandidates int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed articles by meaning",
	Long: `Searches the vector index for articles semantically close to the query.

Results are printed to stdout as JSON Lines, one result per line,
best match first. Diagnostics go to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultQueryLimit, "maximum number of results")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "restrict results to one category")
	searchCmd.Flags().StringVar(&searchFeed, "feed", "", "restrict results to one feed (name or numeric id)")
	searchCmd.Flags().BoolVar(&searchRerank, "rerank", false, "force the rerank pass on")
	searchCmd.Flags().BoolVar(&searchNoRerank, "no-rerank", false, "force the rerank pass off")
	searchCmd.Flags().StringVar(&searchRerankModel, "rerank-model", "", "override the rerank model")
	searchCmd.Flags().IntVar(&searchRerankCandidates, "rerank-candidates", 0, "override the rerank candidate count")
	searchCmd.MarkFlagsMutuallyExclusive("rerank", "no-rerank")
	rootCmd.AddCommand(searchCmd)
}

// searchResultJSON is the stdout wire shape, one object per line.
type searchResultJSON struct {
	Feed        feedJSON `json:"feed"`
	Title       string   `json:"title"`
	Chunk       string   `json:"chunk"`
	RerankScore *float64 `json:"rerank_score,omitempty"`
}

type feedJSON struct {
	Name string `json:"name"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := initQueryService(); err != nil {
		return err
	}

	opts := domain.QueryOptions{
		Limit:            searchLimit,
		Category:         searchCategory,
		Feed:             searchFeed,
		RerankModel:      searchRerankModel,
		RerankCandidates: searchRerankCandidates,
	}
	if searchRerank {
		on := true
		opts.Rerank = &on
	}
	if searchNoRerank {
		off := false
		opts.Rerank = &off
	}

	results, err := queryService.Query(cmd.Context(), args[0], opts)
	if err != nil {
		// An unknown feed is a user mistake, not a failure: report it
		// plainly and exit zero.
		if errors.Is(err, domain.ErrNoSuchFeed) {
			cmd.PrintErrln(err.Error())
			return nil
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		cmd.PrintErrln("No results found.")
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range results {
		row := searchResultJSON{
			Feed:        feedJSON{Name: r.FeedName},
			Title:       r.Title,
			Chunk:       r.Chunk,
			RerankScore: r.RerankScore,
		}
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}
	return nil
}
