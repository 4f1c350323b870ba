package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/moviedeck/internal/dispatch"
	"github.com/mmcdole/moviedeck/internal/imagecache"
	"github.com/mmcdole/moviedeck/internal/search"
	"github.com/mmcdole/moviedeck/internal/state"
	"github.com/mmcdole/moviedeck/internal/store"
	"github.com/mmcdole/moviedeck/internal/tmdb"
	"github.com/mmcdole/moviedeck/internal/tui"
)

func runApp(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer := ctx.logger(cfg)
	defer closer.Close()
	slog.SetDefault(logger)

	logger.Info("starting moviedeck", "version", Version)

	if !cfg.IsConfigured() {
		fmt.Fprintln(cmd.OutOrStdout(), "No TMDB API key configured.")
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("run `moviedeck setup` or set TMDB_API_KEY")
		}
		return runSetup(cmd, ctx)
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("moviedeck needs an interactive terminal; try `moviedeck lists`")
	}

	st, err := store.Open(cfg.Cache.Dir)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer st.Close()

	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL,
		tmdb.WithImageBaseURL(cfg.TMDB.ImageBaseURL),
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithRegion(cfg.TMDB.Region),
		tmdb.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create tmdb client: %w", err)
	}

	images := imagecache.New(client, st, imagecache.Options{
		MaxEntries:      cfg.Cache.MemoryEntries,
		MaxBytes:        cfg.Cache.MemoryBytes,
		MissingCooldown: cfg.Cache.MissingCooldown,
		FetchTimeout:    cfg.Discover.FetchTimeout,
		Logger:          logger,
	})

	appStore := state.NewStore(state.NewAppState(), state.WithLogger(logger))
	if dispatch.RestoreLists(appStore, st) {
		logger.Info("restored saved lists")
	}
	stopPersist := dispatch.PersistLists(appStore, st, logger)
	defer stopPersist()

	dispatcher := dispatch.New(appStore, client, dispatch.Options{
		Threshold:    cfg.Discover.Threshold,
		FetchTimeout: cfg.Discover.FetchTimeout,
		Logger:       logger,
	})
	defer dispatcher.Wait()

	model := tui.NewModel(tui.Deps{
		Store:      appStore,
		Dispatcher: dispatcher,
		Images:     images,
		Search:     search.NewService(appStore, logger),
		Logger:     logger,
	})
	defer model.Close()

	dispatcher.FetchGenres()
	dispatcher.RefillIfNeeded()

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	stats := images.Stats()
	logger.Info("shutting down",
		"memory_hits", stats.MemoryHits,
		"disk_hits", stats.DiskHits,
		"network_fetches", stats.NetworkFetches,
		"coalesced", stats.Coalesced,
	)
	return nil
}
