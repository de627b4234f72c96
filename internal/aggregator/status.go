package aggregator

import (
	"context"

	"trendpulse/internal/domain"

	"golang.org/x/sync/errgroup"
)

// Status probes the providers that expose a health check and reports the rest
// from configuration.
func (s *Service) Status(ctx context.Context) domain.StatusReport {
	ctx, span := s.tracer.Start(ctx, "aggregator.status")
	defer span.End()

	var (
		market   domain.ServiceState
		interest domain.ServiceState
		g        errgroup.Group
	)
	g.Go(func() error {
		market = domain.ServiceState{Status: "connected", Configured: s.cfg.MarketKeyed}
		if err := s.deps.Market.Ping(ctx); err != nil {
			market.Status = "unreachable"
			market.Detail = err.Error()
		}
		return nil
	})
	g.Go(func() error {
		interest = domain.ServiceState{Status: "not_configured", Note: "no API key needed"}
		if s.deps.Interest == nil {
			return nil
		}
		interest.Configured = true
		interest.Status = "available"
		if err := s.deps.Interest.Ping(ctx); err != nil {
			interest.Status = "unreachable"
			interest.Detail = err.Error()
		}
		return nil
	})
	_ = g.Wait()

	social := domain.ServiceState{
		Status: "not_configured",
		Note:   "set TWITTER_BEARER_TOKEN to enable mentions",
	}
	if s.socialReady() {
		social = domain.ServiceState{Status: "configured", Configured: true, Note: "bearer token configured"}
	}

	spot := domain.ServiceState{Status: "disabled"}
	if s.deps.Spot != nil {
		spot = domain.ServiceState{Status: "enabled", Configured: true}
	}

	store := domain.ServiceState{Status: "disabled"}
	if s.deps.Cache != nil {
		store = domain.ServiceState{Status: "enabled", Configured: true, Detail: s.deps.Cache.Backend()}
	}

	return domain.StatusReport{
		Timestamp: s.now().UTC(),
		Services: map[string]domain.ServiceState{
			"coingecko":    market,
			"googleTrends": interest,
			"twitter":      social,
			"binanceSpot":  spot,
			"cache":        store,
		},
	}
}
