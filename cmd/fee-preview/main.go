package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/invoicedesk-backend/internal/fees"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

// scheduleFile accepts either {"tiers": [...]} or a bare tier array.
type scheduleFile struct {
	Tiers []fees.Tier `json:"tiers"`
}

func main() {
	file := flag.String("file", "", "path to a schedule JSON file (- for stdin)")
	amounts := flag.String("amounts", "", "comma separated sample amounts")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "fee-preview", Format: logger.FormatConsole, Output: os.Stderr})
	ctx := context.Background()

	if err := run(os.Stdout, *file, *amounts); err != nil {
		logg.Error(ctx, "fee preview failed", err)
		os.Exit(1)
	}
}

func run(out io.Writer, path, rawAmounts string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("missing -file")
	}
	data, err := readInput(path)
	if err != nil {
		return err
	}
	tiers, err := decodeTiers(data)
	if err != nil {
		return err
	}
	if err := fees.ValidateTiers(tiers); err != nil {
		return err
	}
	samples, err := parseAmounts(rawAmounts)
	if err != nil {
		return err
	}
	render(out, tiers, samples)
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func decodeTiers(data []byte) ([]fees.Tier, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("schedule file is empty")
	}
	if trimmed[0] == '[' {
		var tiers []fees.Tier
		if err := json.Unmarshal(trimmed, &tiers); err != nil {
			return nil, fmt.Errorf("decode tiers: %w", err)
		}
		return tiers, nil
	}
	var doc scheduleFile
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	return doc.Tiers, nil
}

func parseAmounts(raw string) ([]decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return fees.DefaultPreviewAmounts, nil
	}
	var out []decimal.Decimal
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := decimal.NewFromString(part)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q", part)
		}
		out = append(out, value)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no amounts given")
	}
	return out, nil
}

func render(out io.Writer, tiers []fees.Tier, amounts []decimal.Decimal) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "AMOUNT\tFEE\tNET\tTIER\t")
	for _, row := range fees.Preview(tiers, amounts) {
		tier := "-"
		if row.Matched {
			tier = fmt.Sprintf("%d", row.TierIndex+1)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", row.Amount.StringFixed(2), row.Fee.StringFixed(2), row.Net.StringFixed(2), tier)
	}
	w.Flush()

	gaps := fees.FindGaps(tiers)
	if len(gaps) == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, gap := range gaps {
		to := "and above"
		if gap.To != nil {
			to = "to " + gap.To.String()
		}
		fmt.Fprintf(out, "uncovered: %s %s (no fee)\n", gap.From.String(), to)
	}
}
