package mechanism

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telemetrydp/dprelease/internal/dataset"
	"github.com/telemetrydp/dprelease/internal/registry"
	"github.com/telemetrydp/dprelease/pkg/errors"
)

func countTable() *dataset.Table {
	t := dataset.New("counts", []string{"country", "count"})
	t.Rows = [][]string{
		{"DE", "10"},
		{"FR", "20"},
		{"IT", "30"},
	}
	return t
}

func countDescriptor() registry.Descriptor {
	return registry.Descriptor{
		ID:           1,
		Filename:     "counts.csv",
		NoiseColumns: []string{"count"},
		Metric:       registry.AbnormalityMetric("count"),
		Sensitivity:  map[string]float64{"count": 1.0},
	}
}

func newLaplaceExecutor() *Executor {
	return NewExecutor(NewLaplaceNoiser(), nil)
}

func newGaussianExecutor(t *testing.T) *Executor {
	noiser, err := NewGaussianNoiser(1e-6)
	require.NoError(t, err)
	return NewExecutor(noiser, nil)
}

func TestInjectAtInfinityIsIdentity(t *testing.T) {
	baseline := countTable()

	for _, exec := range []*Executor{newLaplaceExecutor(), newGaussianExecutor(t)} {
		noised, err := exec.Inject(baseline, countDescriptor(), math.Inf(1), rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		assert.Equal(t, baseline.Columns, noised.Columns)
		assert.Equal(t, baseline.Rows, noised.Rows)
	}
}

func TestInjectAtZeroRefuses(t *testing.T) {
	baseline := countTable()

	for _, exec := range []*Executor{newLaplaceExecutor(), newGaussianExecutor(t)} {
		noised, err := exec.Inject(baseline, countDescriptor(), 0, rand.New(rand.NewSource(1)))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrUnreleasable))
		assert.Nil(t, noised)
	}
}

func TestInjectIsDeterministic(t *testing.T) {
	baseline := countTable()
	exec := newLaplaceExecutor()

	first, err := exec.Inject(baseline, countDescriptor(), 1.0, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	second, err := exec.Inject(baseline, countDescriptor(), 1.0, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)

	different, err := exec.Inject(baseline, countDescriptor(), 1.0, rand.New(rand.NewSource(43)))
	require.NoError(t, err)
	assert.NotEqual(t, first.Rows, different.Rows)
}

func TestInjectDoesNotMutateBaseline(t *testing.T) {
	baseline := countTable()
	exec := newGaussianExecutor(t)

	_, err := exec.Inject(baseline, countDescriptor(), 0.1, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"DE", "10"}, {"FR", "20"}, {"IT", "30"}}, baseline.Rows)
}

func TestInjectClampsNegatives(t *testing.T) {
	baseline := countTable()
	exec := newLaplaceExecutor()

	// Strong privacy means large noise; negatives must never survive.
	for seed := int64(0); seed < 20; seed++ {
		noised, err := exec.Inject(baseline, countDescriptor(), 0.01, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)

		values, err := noised.FloatColumn("count")
		require.NoError(t, err)
		for _, v := range values {
			assert.GreaterOrEqual(t, v, 0.0)
		}
	}
}

func TestInjectRenormalizesPercentColumn(t *testing.T) {
	baseline := dataset.New("share", []string{"vendor", "pct"})
	baseline.Rows = [][]string{
		{"a", "50"},
		{"b", "30"},
		{"c", "20"},
	}
	desc := registry.Descriptor{
		ID:               4,
		Filename:         "share.csv",
		NoiseColumns:     []string{"pct"},
		NormalizePercent: "pct",
		Metric:           registry.DistributionMetric("pct"),
		Sensitivity:      map[string]float64{"pct": 1.0},
	}

	exec := newGaussianExecutor(t)
	noised, err := exec.Inject(baseline, desc, 0.5, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	values, err := noised.FloatColumn("pct")
	require.NoError(t, err)
	var sum float64
	for _, v := range values {
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestInjectRenormalizesRowDistributions(t *testing.T) {
	baseline := dataset.New("usage", []string{"persona", "games", "mail", "news"})
	baseline.Rows = [][]string{
		{"creator", "20", "30", "50"},
		{"gamer", "80", "10", "10"},
	}
	desc := registry.Descriptor{
		ID:            8,
		Filename:      "usage.csv",
		NoiseColumns:  []string{"games", "mail", "news"},
		NormalizeRows: []string{"games", "mail", "news"},
		Metric:        registry.MultiDistributionMetric("games", "mail", "news"),
		Sensitivity:   map[string]float64{"games": 1, "mail": 1, "news": 1},
	}

	exec := newLaplaceExecutor()
	noised, err := exec.Inject(baseline, desc, 1.0, rand.New(rand.NewSource(11)))
	require.NoError(t, err)

	games, err := noised.FloatColumn("games")
	require.NoError(t, err)
	mail, err := noised.FloatColumn("mail")
	require.NoError(t, err)
	news, err := noised.FloatColumn("news")
	require.NoError(t, err)

	for row := 0; row < noised.NumRows(); row++ {
		assert.InDelta(t, 100.0, games[row]+mail[row]+news[row], 1e-9)
	}
}

func TestInjectMissingNoiseColumnFails(t *testing.T) {
	baseline := dataset.New("drifted", []string{"country", "other"})
	baseline.Rows = [][]string{{"DE", "1"}}

	exec := newLaplaceExecutor()
	_, err := exec.Inject(baseline, countDescriptor(), 1.0, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMissingNoiseColumn))
}

func TestInjectPassThroughWithoutNoiseColumns(t *testing.T) {
	baseline := dataset.New("winners", []string{"country", "browser"})
	baseline.Rows = [][]string{{"DE", "firefox"}}
	desc := registry.Descriptor{
		ID:          6,
		Filename:    "winners.csv",
		Metric:      registry.WinnerMetric("browser"),
		Sensitivity: map[string]float64{},
	}

	exec := newGaussianExecutor(t)
	noised, err := exec.Inject(baseline, desc, 0.01, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, baseline.Rows, noised.Rows)
}

func TestInjectRejectsNegativeEpsilon(t *testing.T) {
	exec := newLaplaceExecutor()
	_, err := exec.Inject(countTable(), countDescriptor(), -1, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidEpsilon))
}

func TestGaussianNoiserRejectsBadDelta(t *testing.T) {
	for _, delta := range []float64{0, 1, -0.5, 2} {
		_, err := NewGaussianNoiser(delta)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidDelta))
	}
}

func TestForName(t *testing.T) {
	gaussian, err := ForName(NameGaussian, 1e-6)
	require.NoError(t, err)
	assert.Equal(t, NameGaussian, gaussian.Name())

	laplace, err := ForName(NameLaplace, 0.5)
	require.NoError(t, err)
	assert.Equal(t, NameLaplace, laplace.Name())

	_, err = ForName("exponential", 1e-6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownMechanism))
}

func TestLaplaceSampleScaleZeroIsNoiseless(t *testing.T) {
	noiser := NewLaplaceNoiser()
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 10; i++ {
		assert.Zero(t, noiser.Sample(rng, 0))
	}
}
