package service

import (
	"errors"
	"fmt"

	"github.com/jengzang/periodic-risk-go/internal/circular"
	"github.com/jengzang/periodic-risk-go/internal/models"
)

// maxAnalyzePoints caps the grid size of a one-off analysis
const maxAnalyzePoints = 4096

// CircularService runs the circular statistics pipeline on ad-hoc samples
type CircularService struct {
	bandwidth circular.BandwidthOptions
}

// NewCircularService creates a new circular service
func NewCircularService(opts circular.BandwidthOptions) *CircularService {
	return &CircularService{bandwidth: opts}
}

// Analyze fits a kernel density to the sample of req and tests the sample
// against it
func (s *CircularService) Analyze(req models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	d, err := circular.ParseDomain(req.Domain)
	if err != nil {
		return nil, err
	}

	points := req.Points
	if points == 0 {
		points = circular.DefaultKernelPoints
	}
	if points < 2 || points > maxAnalyzePoints {
		return nil, fmt.Errorf("%w: points must be in [2, %d]", ErrInvalidRequest, maxAnalyzePoints)
	}

	var angles []float64
	switch {
	case len(req.Timestamps) > 0 && len(req.Values) > 0:
		return nil, fmt.Errorf("%w: set either timestamps or values", ErrInvalidRequest)
	case len(req.Timestamps) > 0:
		angles, err = circular.TimesToAngles(req.Timestamps, d)
	default:
		angles, err = circular.ValuesToAngles(req.Values, d)
	}
	if err != nil {
		return nil, err
	}

	bw, err := circular.SelectBandwidth(angles, s.bandwidth)
	if err != nil {
		return nil, err
	}
	curve, err := circular.EstimateKernel(angles, bw.Bandwidth, points, circular.RawAverage)
	if err != nil {
		return nil, err
	}
	// the test always runs against the raw curve; its CDF is scale free
	kt, err := circular.KuiperTestDetails(angles, curve)
	if err != nil {
		return nil, err
	}
	if req.PeakNormalize {
		curve = curve.PeakNormalized()
	}

	resp := &models.AnalyzeResponse{
		Domain:        d,
		Angles:        angles,
		Bandwidth:     bw.Bandwidth,
		Converged:     bw.Converged,
		Iterations:    bw.Iterations,
		Normalization: curve.Normalization.String(),
		Curve:         curve.Values,
		Modes:         curve.Modes(),
		PValue:        kt.PValue,
		Statistic:     kt.Statistic,
		D1:            kt.D1,
		D2:            kt.D2,
		D1Index:       kt.D1Index,
		D2Index:       kt.D2Index,
	}

	mean, std, err := circular.PeriodicMeanStd(angles)
	switch {
	case err == nil:
		deg := circular.Degrees(mean)
		resp.Mean, resp.MeanDegrees, resp.Std = &mean, &deg, &std
	case !errors.Is(err, circular.ErrNumericDomain):
		return nil, err
	}

	if len(req.Timestamps) > 0 {
		resp.Frequencies, err = circular.Frequencies(req.Timestamps, d)
		if err != nil {
			return nil, err
		}
	}

	return resp, nil
}

// Domains describes the supported cyclic domains
func (s *CircularService) Domains() []models.DomainInfo {
	domains := circular.AllDomains()
	infos := make([]models.DomainInfo, len(domains))
	for i, d := range domains {
		infos[i] = models.DomainInfo{
			Domain:    d,
			Period:    d.Period(),
			Scale:     d.Scale(),
			Offset:    d.Offset(),
			Clockwise: d.Clockwise(),
		}
	}
	return infos
}

// VonMises samples the parametric density of a periodic mean and std
func (s *CircularService) VonMises(req models.VonMisesRequest) (*models.VonMisesResponse, error) {
	size := req.Size
	if size == 0 {
		size = circular.DefaultCurveSize
	}
	if size > maxAnalyzePoints {
		return nil, fmt.Errorf("%w: size must be at most %d", ErrInvalidRequest, maxAnalyzePoints)
	}

	x, p, err := circular.VonMisesCurve(req.Mean, req.Std, size)
	if err != nil {
		return nil, err
	}
	return &models.VonMisesResponse{X: x, Density: p}, nil
}
