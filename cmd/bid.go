package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/bid-sniper/internal/model"
)

var (
	bidAddress     string
	bidRegion      string
	bidJobType     string
	bidDescription string
	bidScope       string
	bidIssues      []string
	bidUrgency     string
	bidMargin      float64
	bidNotes       string
)

var bidCmd = &cobra.Command{
	Use:   "bid",
	Short: "Price a single bid and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, cfg, "bid")
		if err != nil {
			return err
		}
		defer env.Close()

		req := model.BidRequest{
			Address:        bidAddress,
			Region:         bidRegion,
			JobType:        model.JobType(strings.ToLower(bidJobType)),
			JobDescription: bidDescription,
			ScopeOfWork:    bidScope,
			KnownIssues:    bidIssues,
			Urgency:        model.Urgency(strings.ToLower(bidUrgency)),
			DesiredMargin:  bidMargin,
			Notes:          bidNotes,
		}

		bid, err := env.Pipeline.CreateBid(ctx, req)
		if err != nil {
			return eris.Wrap(err, "create bid")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(bid)
	},
}

func init() {
	f := bidCmd.Flags()
	f.StringVar(&bidAddress, "address", "", "property address")
	f.StringVar(&bidRegion, "region", "", "region or city")
	f.StringVar(&bidJobType, "job-type", string(model.JobOther), "roof_repair, bathroom_remodel, electrical_rewire, general_renovation or other")
	f.StringVar(&bidDescription, "description", "", "job description")
	f.StringVar(&bidScope, "scope", "", "scope of work")
	f.StringSliceVar(&bidIssues, "issue", nil, "known issue (repeatable)")
	f.StringVar(&bidUrgency, "urgency", "", "low, medium, high or emergency")
	f.Float64Var(&bidMargin, "margin", 0.25, "desired margin as a fraction, e.g. 0.25")
	f.StringVar(&bidNotes, "notes", "", "free-form notes")
	_ = bidCmd.MarkFlagRequired("address")
	rootCmd.AddCommand(bidCmd)
}
