package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
)

// namesReport is the JSON form of the active name tables.
type namesReport struct {
	Nakshatras  []string          `json:"nakshatras"`
	Tithis      []string          `json:"tithis"`
	Raasis      []string          `json:"raasis"`
	SolarMonths []string          `json:"solar_months"`
	Paksha      map[string]string `json:"paksha"`
}

func newNamesCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "names",
		Short: "Print the active nakshatra, tithi, raasi and month names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json"); err != nil {
				return err
			}
			t := a.tables
			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, namesReport{
					Nakshatras:  t.Nakshatras(),
					Tithis:      t.Tithis(),
					Raasis:      t.Raasis(),
					SolarMonths: t.SolarMonths(),
					Paksha: map[string]string{
						sidereal.Waxing.String(): t.PakshaName(sidereal.Waxing),
						sidereal.Waning.String(): t.PakshaName(sidereal.Waning),
					},
				})
			}

			writeList(out, "Nakshatras", t.Nakshatras())
			writeList(out, "Tithis", t.Tithis())
			writeList(out, "Raasis", t.Raasis())
			writeList(out, "Solar months", t.SolarMonths())
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text or json")
	return cmd
}

func writeList(w io.Writer, title string, names []string) {
	fmt.Fprintf(w, "%s:\n", title)
	for i, n := range names {
		fmt.Fprintf(w, "%3d  %s\n", i+1, n)
	}
	fmt.Fprintln(w)
}
