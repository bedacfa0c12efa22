package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/BioHazard786/syncwatch/internal/client"
	"github.com/BioHazard786/syncwatch/internal/dns"
	"github.com/BioHazard786/syncwatch/internal/ui"
	"github.com/spf13/cobra"
)

var flagStatsConn connFlags

var statsClient = &http.Client{
	Transport: &http.Transport{DialContext: dns.DialContext},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the relay's room and connection counts",
	Long: `Fetch /stats from the relay and print it as a table.

Examples:
  syncwatch stats
  syncwatch stats --domain watch.example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(flagStatsConn.options(cmd))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		stats, err := fetchStats(ctx, cfg.StatsURL)
		if err != nil {
			return err
		}
		fmt.Println(ui.StatsView(cfg.Domain, stats))
		return nil
	},
}

func fetchStats(ctx context.Context, statsURL string) (ui.RelayStats, error) {
	var stats ui.RelayStats

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statsURL, nil)
	if err != nil {
		return stats, client.NewError("fetch stats", err)
	}
	resp, err := statsClient.Do(req)
	if err != nil {
		return stats, client.NewError("fetch stats", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return stats, client.WrapError("fetch stats", client.ErrServer, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return stats, client.NewError("decode stats", err)
	}
	return stats, nil
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&flagStatsConn.domain, "domain", "d", "", "Relay domain")
	statsCmd.Flags().BoolVar(&flagStatsConn.insecure, "insecure", false, "Use http:// instead of https://")
}
