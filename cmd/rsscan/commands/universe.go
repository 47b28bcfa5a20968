package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Cocofu92/rs-dashboard/internal/contracts"
	"github.com/Cocofu92/rs-dashboard/internal/s1_universe"
	"github.com/Cocofu92/rs-dashboard/internal/store"
)

// universeCmd represents the universe command group
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Inspect or refresh the cached ticker universe",
}

var universeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cached universe (no network)",
	RunE:  runUniverseShow,
}

var universeRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refetch the universe from the catalog and overwrite the cache",
	RunE:  runUniverseRefresh,
}

var universeListTickers bool

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeShowCmd, universeRefreshCmd)

	universeShowCmd.Flags().BoolVar(&universeListTickers, "tickers", false, "print every ticker")
}

func runUniverseShow(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	u, err := a.provider.Cached(cmd.Context(), a.query())
	if errors.Is(err, store.ErrCacheMiss) {
		PrintWarning(os.Stdout, "Universe not cached yet. Run: rsscan universe refresh")
		return nil
	}
	if err != nil {
		return err
	}

	printUniverse(a.query(), u, a.strategy.Universe.CacheTTL.String())
	if universeListTickers {
		fmt.Println(strings.Join(u.Tickers, "\n"))
	}
	return nil
}

func runUniverseRefresh(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cfg.RequirePolygonKey(); err != nil {
		return err
	}

	u, err := a.provider.Refresh(cmd.Context(), a.query())
	if err != nil {
		return fmt.Errorf("refresh universe: %w", err)
	}

	printUniverse(a.query(), u, a.strategy.Universe.CacheTTL.String())
	for _, w := range u.Warnings {
		PrintWarning(os.Stdout, w)
	}
	PrintSuccess(os.Stdout, fmt.Sprintf("Cached %d tickers", u.Count()))
	return nil
}

func printUniverse(q contracts.UniverseQuery, u *contracts.Universe, ttl string) {
	PrintHeader(os.Stdout, "Ticker Universe")
	PrintKeyValue(os.Stdout, "Cache key", s1_universe.CacheKey(q), 10)
	PrintKeyValue(os.Stdout, "Tickers", fmt.Sprintf("%d", u.Count()), 10)
	PrintKeyValue(os.Stdout, "Fetched", u.FetchedAt.Format("2006-01-02 15:04:05"), 10)
	PrintKeyValue(os.Stdout, "TTL", ttl, 10)
	PrintSeparator(os.Stdout)
}
