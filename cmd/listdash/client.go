package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/foxzi/listdash/internal/app"
	"github.com/foxzi/listdash/internal/chart"
	"github.com/foxzi/listdash/internal/config"
	"github.com/foxzi/listdash/internal/exchange"
	"github.com/foxzi/listdash/internal/tui"
	"github.com/foxzi/listdash/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a global search against a dashboard",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Fetch request statistics from a dashboard",
	RunE:  runStats,
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Interactive terminal dashboard",
	RunE:  runTop,
}

var (
	searchLists   bool
	searchPeople  bool
	searchDomains bool
	statsLists    []string
	statsJSON     bool
	topLogFile    string
)

func init() {
	searchCmd.Flags().BoolVar(&searchLists, "lists", false, "Search lists")
	searchCmd.Flags().BoolVar(&searchPeople, "people", false, "Search people")
	searchCmd.Flags().BoolVar(&searchDomains, "domains", false, "Search domains")

	statsCmd.Flags().StringSliceVar(&statsLists, "list", nil, "List id to include (repeatable)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print the chart data as JSON")

	topCmd.Flags().StringVar(&topLogFile, "log-file", "", "Write logs to this file")

	rootCmd.AddCommand(searchCmd, statsCmd, topCmd)
}

func newClient(cfg *config.Config) *exchange.Client {
	return exchange.NewClient(cfg.Client.DashboardURL, exchange.Options{
		Email:    cfg.Client.Email,
		Password: cfg.Client.Password,
		Timeout:  cfg.Client.Timeout,
	})
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := app.SetupLogger(cfg.Logging, os.Stderr)

	ctrl := ui.NewController(newClient(cfg), logger)
	scope := exchange.Scope{Lists: searchLists, People: searchPeople, Domains: searchDomains}
	if err := ctrl.Search(context.Background(), args[0], scope); err != nil {
		return err
	}

	candidates := ctrl.Candidates()
	if len(candidates) == 0 {
		fmt.Println("No matches")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tVALUE\tPAGE")
	fmt.Fprintln(w, "----\t-----\t----")
	for _, c := range candidates {
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.Kind, c.Value, ui.Resolve(c))
	}
	return w.Flush()
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := app.SetupLogger(cfg.Logging, os.Stderr)

	ctrl := ui.NewController(newClient(cfg), logger)
	if err := ctrl.Filter(context.Background(), statsLists); err != nil {
		return err
	}
	data := ctrl.Chart()

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*chart.Data
			Options chart.Options `json:"options"`
		}{data, chart.DefaultOptions()})
	}

	mods := data.Moderations()
	subs := data.Subscriptions()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "DATE\t%s\t%s\n", chart.SeriesModerations, chart.SeriesSubscriptions)
	for i := 0; i < data.Points(); i++ {
		fmt.Fprintf(w, "%s\t%s\t%s\n", data.Labels[i], mods[i], subs[i])
	}
	return w.Flush()
}

func runTop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logOut := io.Discard
	if topLogFile != "" {
		f, err := os.OpenFile(topLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := app.SetupLogger(cfg.Logging, logOut)

	model := tui.NewAppModel(newClient(cfg), cfg.Client.Timeout, logger)
	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("terminal UI: %w", err)
	}

	if m, ok := finalModel.(*tui.AppModel); ok {
		if m.Err != nil {
			return m.Err
		}
		if m.Opened != "" {
			fmt.Println(cfg.Server.BaseURL + m.Opened)
		}
	}
	return nil
}
