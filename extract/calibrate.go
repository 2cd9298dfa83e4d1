package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/prodex"
)

// DefaultDwellCeiling is used when no calibration step produced a product.
const DefaultDwellCeiling = 8 * time.Second

// DefaultCalibrationSteps returns the dwell times tried during calibration.
func DefaultCalibrationSteps() []time.Duration {
	return []time.Duration{
		500 * time.Millisecond,
		1 * time.Second,
		2 * time.Second,
		3 * time.Second,
		5 * time.Second,
	}
}

// Calibrator finds the shortest post-load wait that still yields a product
// with a name and a price.
type Calibrator struct {
	Loader     prodex.PageLoader
	Strategies *prodex.StrategySet
	Steps      []time.Duration
	Ceiling    time.Duration
	Logger     *slog.Logger
}

// Calibrate tries each step on url in ascending order and returns the first
// that satisfies the check, or the ceiling. The oracle may be called at
// most once across all steps.
func (c *Calibrator) Calibrate(ctx context.Context, cfg *prodex.MultiStrategyConfig, url string) time.Duration {
	logger := loggerOr(c.Logger)
	steps := c.Steps
	if len(steps) == 0 {
		steps = DefaultCalibrationSteps()
	}
	ceiling := c.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultDwellCeiling
	}

	ctx = prodex.WithOracleUsage(ctx, prodex.OracleUsageFrom(ctx).Child(1))

	for _, dwell := range steps {
		page, err := c.Loader.Load(ctx, url, prodex.LoadOptions{Dwell: dwell})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Debug("calibration load failed", "url", url, "dwell", dwell, "err", err)
			continue
		}

		product, _ := reconcile(ctx, c.Strategies, cfg, url, page)
		if utf8.RuneCountInString(strings.TrimSpace(product.Name)) > 1 && product.Price > 0 {
			logger.Info("calibrated dwell", "url", url, "dwell", dwell)
			return dwell
		}
	}

	logger.Info("calibration fell back to ceiling", "url", url, "dwell", ceiling)
	return ceiling
}
