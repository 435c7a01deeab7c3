package pipeline

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var domainMappingHeader = []string{
	"variant_id", "input_coords", "consequence", "protein_position",
	"amino_acid_change", "codon_change", "domain_affected", "domain_start",
	"domain_end",
}

// MapDomains overlaps annotated protein positions with the protein's
// Domain and Region features and writes outputs/variant_protein_mapping.csv.
func (r *Runner) MapDomains(ctx context.Context) error {
	if err := requireFile(r.paths.VariantsAnnotated(), "genescout annotate"); err != nil {
		return err
	}
	rows, err := readCSVFile(r.paths.VariantsAnnotated())
	if err != nil {
		return err
	}

	domains, err := r.clients.UniProt.Domains(ctx, r.profile.UniProtID)
	if err != nil {
		return err
	}
	r.logger.Info("protein features loaded", zap.Int("domains", len(domains)))

	var out [][]string
	for _, row := range rows {
		start, err := strconv.ParseInt(row["protein_start"], 10, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseInt(row["protein_end"], 10, 64)
		if err != nil {
			end = start
		}

		var names, starts, ends []string
		for _, d := range domains {
			if d.Contains(start, end) {
				names = append(names, d.Description)
				starts = append(starts, strconv.FormatInt(d.Start, 10))
				ends = append(ends, strconv.FormatInt(d.End, 10))
			}
		}
		affected := "None"
		if len(names) > 0 {
			affected = strings.Join(names, "|")
		}
		out = append(out, []string{
			row["variant_id"], row["input_coords"], row["most_severe_consequence"],
			strconv.FormatInt(start, 10),
			row["amino_acids"], row["codons"],
			affected, strings.Join(starts, "|"), strings.Join(ends, "|"),
		})
	}

	if err := writeCSVFile(r.paths.DomainMapping(), domainMappingHeader, out); err != nil {
		return err
	}
	r.logger.Info("domain mapping written", zap.Int("variants", len(out)))
	return nil
}
