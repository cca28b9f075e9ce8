package training

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jengzang/periodic-risk-go/internal/circular"
	"github.com/jengzang/periodic-risk-go/internal/models"
)

// Config controls how risk profiles are trained
type Config struct {
	Points             int
	Bandwidth          circular.BandwidthOptions
	RequireConvergence bool
	Workers            int
	Location           *time.Location
}

// DefaultConfig returns the training defaults
func DefaultConfig() Config {
	return Config{
		Points:    circular.DefaultKernelPoints,
		Bandwidth: circular.DefaultBandwidthOptions(),
		Workers:   4,
		Location:  time.UTC,
	}
}

// Observer receives timings and outcomes of training runs
type Observer interface {
	ObserveDomain(d circular.Domain, elapsed time.Duration, converged bool)
	ObserveEntity(trained bool)
}

type nopObserver struct{}

func (nopObserver) ObserveDomain(circular.Domain, time.Duration, bool) {}
func (nopObserver) ObserveEntity(bool)                                 {}

// Trainer builds per-account risk profiles from event times
type Trainer struct {
	cfg    Config
	obs    Observer
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a Trainer
type Option func(*Trainer)

// WithObserver reports training timings to obs
func WithObserver(obs Observer) Option {
	return func(t *Trainer) {
		if obs != nil {
			t.obs = obs
		}
	}
}

// WithLogger sets the logger used for warnings
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Trainer) { t.logger = logger }
}

// WithClock replaces time.Now for TrainedAt stamps
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) { t.now = now }
}

// NewTrainer creates a new trainer
func NewTrainer(cfg Config, opts ...Option) *Trainer {
	def := DefaultConfig()
	if cfg.Points < 2 {
		cfg.Points = def.Points
	}
	if cfg.Bandwidth == (circular.BandwidthOptions{}) {
		cfg.Bandwidth = def.Bandwidth
	}
	if cfg.Workers < 1 {
		cfg.Workers = def.Workers
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}

	t := &Trainer{
		cfg:    cfg,
		obs:    nopObserver{},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Config returns the effective configuration
func (t *Trainer) Config() Config {
	return t.cfg
}

// TrainDomain fits the kernel density of times on domain d and derives its
// confidence and risk scores
func (t *Trainer) TrainDomain(times []time.Time, d circular.Domain) (*models.DomainProfile, error) {
	start := time.Now()

	local := make([]time.Time, len(times))
	for i, ts := range times {
		local[i] = ts.In(t.cfg.Location)
	}
	angles, err := circular.TimesToAngles(local, d)
	if err != nil {
		return nil, err
	}

	bw, err := circular.SelectBandwidth(angles, t.cfg.Bandwidth)
	if err != nil {
		return nil, err
	}
	if !bw.Converged {
		t.logger.Warn().
			Str("domain", string(d)).
			Float64("bandwidth", bw.Bandwidth).
			Int("iterations", bw.Iterations).
			Msg("bandwidth search did not converge")
		if t.cfg.RequireConvergence {
			t.obs.ObserveDomain(d, time.Since(start), false)
			return nil, fmt.Errorf("%w: bandwidth %g after %d evaluations", circular.ErrNotConverged, bw.Bandwidth, bw.Iterations)
		}
	}

	curve, err := circular.EstimateKernel(angles, bw.Bandwidth, t.cfg.Points, circular.RawAverage)
	if err != nil {
		return nil, err
	}
	confidence, err := circular.KuiperTest(angles, curve)
	if err != nil {
		return nil, err
	}
	scores, err := curve.RiskScores()
	if err != nil {
		return nil, err
	}

	profile := &models.DomainProfile{
		Domain:     d,
		Bandwidth:  bw.Bandwidth,
		Confidence: confidence,
		Converged:  bw.Converged,
		Iterations: bw.Iterations,
		SampleSize: len(angles),
		Curve:      curve.Values,
		RiskScores: scores,
	}

	mean, std, err := circular.PeriodicMeanStd(angles)
	switch {
	case err == nil:
		profile.MeanAngle = &mean
		profile.StdAngle = &std
	case !errors.Is(err, circular.ErrNumericDomain):
		return nil, err
	}

	elapsed := time.Since(start)
	profile.DurationMS = elapsed.Milliseconds()
	t.obs.ObserveDomain(d, elapsed, bw.Converged)

	return profile, nil
}

// TrainEntity trains every domain for one account. Any failing domain fails
// the whole account.
func (t *Trainer) TrainEntity(accountID string, times []time.Time) (*models.RiskProfile, error) {
	return t.trainEntity(uuid.NewString(), accountID, times)
}

func (t *Trainer) trainEntity(runID, accountID string, times []time.Time) (*models.RiskProfile, error) {
	profile := &models.RiskProfile{
		AccountID: accountID,
		RunID:     runID,
		Points:    t.cfg.Points,
		TrainedAt: t.now().Unix(),
	}

	for _, d := range circular.AllDomains() {
		dp, err := t.TrainDomain(times, d)
		if err != nil {
			t.obs.ObserveEntity(false)
			return nil, fmt.Errorf("failed to train %s for account %s: %w", d, accountID, err)
		}
		profile.Domains = append(profile.Domains, *dp)
	}

	t.obs.ObserveEntity(true)
	return profile, nil
}

// EntityFailure records why one account could not be trained
type EntityFailure struct {
	AccountID string
	Err       error
}

// BatchResult is the outcome of TrainAll, ordered by account ID
type BatchResult struct {
	RunID    string
	Profiles []*models.RiskProfile
	Failures []EntityFailure
}

// TrainAll trains every account of samples on a bounded worker pool. Accounts
// fail independently; only cancellation of ctx aborts the batch.
func (t *Trainer) TrainAll(ctx context.Context, samples map[string][]time.Time) (*BatchResult, error) {
	accounts := make([]string, 0, len(samples))
	for acc := range samples {
		accounts = append(accounts, acc)
	}
	sort.Strings(accounts)

	runID := uuid.NewString()
	profiles := make([]*models.RiskProfile, len(accounts))
	errs := make([]error, len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Workers)
	for i, acc := range accounts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			profiles[i], errs[i] = t.trainEntity(runID, acc, samples[acc])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &BatchResult{RunID: runID}
	for i, acc := range accounts {
		if errs[i] != nil {
			t.logger.Warn().Err(errs[i]).Str("account_id", acc).Msg("account not trained")
			res.Failures = append(res.Failures, EntityFailure{AccountID: acc, Err: errs[i]})
			continue
		}
		res.Profiles = append(res.Profiles, profiles[i])
	}
	return res, nil
}
