package pipeline

import "context"

var pqtlHeader = []string{"variant_id", "protein", "tissue", "beta", "pvalue", "study"}

// FetchPQTL writes the header-only pQTL placeholder table. No free pQTL
// API exists; rows are meant to be curated in manually from PhenoScanner
// or Open Targets Genetics.
func (r *Runner) FetchPQTL(ctx context.Context) error {
	return writeCSVFile(r.paths.PQTLAssociations(), pqtlHeader, nil)
}
