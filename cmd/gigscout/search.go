package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchLimit    int
	searchArtistID string
	searchArtist   string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search artists and concerts",
}

var searchArtistsCmd = &cobra.Command{
	Use:   "artists <term>",
	Short: "Find artists by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		resp, err := rt.aggregator.SearchArtists(cmd.Context(), strings.Join(args, " "), searchLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(resp)
		}
		printArtistTable(resp.Artists)
		return nil
	},
}

var searchPopularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List artists with upcoming events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		resp, err := rt.aggregator.PopularArtists(cmd.Context(), searchLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(resp)
		}
		printArtistTable(resp.Artists)
		return nil
	},
}

var searchEventsCmd = &cobra.Command{
	Use:   "events <artist>",
	Short: "Find upcoming concerts for an artist",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		resp, err := rt.aggregator.SearchEventsCombined(cmd.Context(), strings.Join(args, " "), searchArtistID, searchLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(resp)
		}
		printEventTable(resp)
		return nil
	},
}

var searchLocationCmd = &cobra.Command{
	Use:   "location <city>",
	Short: "Find upcoming concerts in a city",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		resp, err := rt.aggregator.SearchEventsByLocation(cmd.Context(), strings.Join(args, " "), searchArtist, searchLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(resp)
		}
		printEventTable(resp)
		return nil
	},
}

func init() {
	searchCmd.PersistentFlags().IntVarP(&searchLimit, "limit", "n", 0, "maximum results (0 uses the configured default)")
	searchEventsCmd.Flags().StringVar(&searchArtistID, "artist-id", "", "Ticketmaster attraction id")
	searchLocationCmd.Flags().StringVar(&searchArtist, "artist", "", "only events for this performer")

	searchCmd.AddCommand(searchArtistsCmd)
	searchCmd.AddCommand(searchPopularCmd)
	searchCmd.AddCommand(searchEventsCmd)
	searchCmd.AddCommand(searchLocationCmd)
}
