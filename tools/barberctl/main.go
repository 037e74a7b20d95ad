package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	token   string
)

var defaultBarbers = []barber{
	{Name: "John Doe", Specialty: "Classic Cuts"},
	{Name: "Mike Smith", Specialty: "Fades & Designs"},
	{Name: "Robert Johnson", Specialty: "Beard Grooming"},
}

var rootCmd = &cobra.Command{
	Use:           "barberctl",
	Short:         "Operator CLI for the BarberBook gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var loginCmd = &cobra.Command{
	Use:   "login [email] [password]",
	Short: "Sign in and print an access token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		access, err := newClient(baseURL, "").login(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), access)
		return nil
	},
}

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Show slot availability for a barber on a date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		barberID, _ := cmd.Flags().GetString("barber")
		date, _ := cmd.Flags().GetString("date")
		slots, err := newClient(baseURL, token).slots(cmd.Context(), barberID, date)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tAVAILABLE")
		for _, s := range slots {
			fmt.Fprintf(tw, "%s\t%t\n", s.Time, s.Available)
		}
		return tw.Flush()
	},
}

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Book a slot for the signed-in customer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var req bookRequest
		req.BarberID, _ = cmd.Flags().GetString("barber")
		req.ServiceID, _ = cmd.Flags().GetString("service")
		req.Date, _ = cmd.Flags().GetString("date")
		req.Time, _ = cmd.Flags().GetString("time")
		appt, err := newClient(baseURL, token).book(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd, appt)
	},
}

var seedBarbersCmd = &cobra.Command{
	Use:   "seed-barbers",
	Short: "Create the default barbers (or those in --file) that do not exist yet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		seed := defaultBarbers
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			raw, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			seed = nil
			if err := json.Unmarshal(raw, &seed); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}
		}
		created, err := newClient(baseURL, token).seedBarbers(cmd.Context(), seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d barber(s)\n", len(created))
		return nil
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", envOr("BARBERBOOK_URL", "http://localhost:8080"), "gateway base url")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("BARBERBOOK_TOKEN"), "bearer access token")

	slotsCmd.Flags().String("barber", "", "barber id")
	slotsCmd.Flags().String("date", "", "date (YYYY-MM-DD)")
	_ = slotsCmd.MarkFlagRequired("barber")
	_ = slotsCmd.MarkFlagRequired("date")

	bookCmd.Flags().String("barber", "", "barber id")
	bookCmd.Flags().String("service", "", "service id")
	bookCmd.Flags().String("date", "", "date (YYYY-MM-DD)")
	bookCmd.Flags().String("time", "", `slot label, e.g. "10:30 AM"`)
	for _, name := range []string{"barber", "service", "date", "time"} {
		_ = bookCmd.MarkFlagRequired(name)
	}

	seedBarbersCmd.Flags().String("file", "", "json array of barbers to create")

	rootCmd.AddCommand(loginCmd, slotsCmd, bookCmd, seedBarbersCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
