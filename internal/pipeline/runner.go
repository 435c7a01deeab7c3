package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/genescout/genescout/internal/gene"
)

// Runner executes the analysis stages for one gene profile.
type Runner struct {
	paths   Paths
	clients *Clients
	profile *gene.Profile
	logger  *zap.Logger
}

func NewRunner(paths Paths, clients *Clients, profile *gene.Profile) *Runner {
	return &Runner{paths: paths, clients: clients, profile: profile, logger: zap.NewNop()}
}

// SetLogger sets the logger used for stage progress and warnings.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Stage is one pipeline step with its command name.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// Stages returns the stages in execution order.
func (r *Runner) Stages() []Stage {
	return []Stage{
		{"fetch gene", r.FetchGeneInfo},
		{"fetch variants", r.FetchVariants},
		{"fetch frequencies", r.FetchFrequencies},
		{"fetch eqtl", r.FetchEQTL},
		{"fetch pqtl", r.FetchPQTL},
		{"fetch gwas", r.FetchGWAS},
		{"annotate", r.Annotate},
		{"domains", r.MapDomains},
		{"integrate", r.Integrate},
		{"structure", r.FetchStructure},
	}
}

// RunAll executes every stage in order under the data-directory lock.
// A stage whose upstream source fails is logged and skipped; the run
// stops only when a stage's required input file is missing.
func (r *Runner) RunAll(ctx context.Context) error {
	if err := r.paths.EnsureDirs(); err != nil {
		return err
	}

	lock := flock.New(r.paths.LockFile())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another run is already using %s", r.paths.Root)
	}
	defer lock.Unlock()

	for _, stage := range r.Stages() {
		r.logger.Info("running stage", zap.String("stage", stage.Name))
		if err := stage.Run(ctx); err != nil {
			if errors.Is(err, ErrMissingInput) || ctx.Err() != nil {
				return fmt.Errorf("stage %s: %w", stage.Name, err)
			}
			r.logger.Warn("stage degraded, continuing with partial data",
				zap.String("stage", stage.Name), zap.Error(err))
		}
	}
	return nil
}
