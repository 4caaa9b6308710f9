package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/bid-sniper/internal/model"
	"github.com/sells-group/bid-sniper/internal/pricing"
	"github.com/sells-group/bid-sniper/internal/research"
)

type mockResearcher struct {
	mock.Mock
}

func (m *mockResearcher) SearchPropertyDetails(ctx context.Context, address, region string) model.Result[[]model.SearchRecord] {
	args := m.Called(ctx, address, region)
	return args.Get(0).(model.Result[[]model.SearchRecord])
}

func (m *mockResearcher) SearchMarketRates(ctx context.Context, region, jobType string) model.Result[[]model.SearchRecord] {
	args := m.Called(ctx, region, jobType)
	return args.Get(0).(model.Result[[]model.SearchRecord])
}

func (m *mockResearcher) SearchLabourRates(ctx context.Context, region, jobType, address string) research.LabourRateLookup {
	args := m.Called(ctx, region, jobType, address)
	return args.Get(0).(research.LabourRateLookup)
}

type mockPricer struct {
	mock.Mock
}

func (m *mockPricer) Calculate(in pricing.Input) (*model.PricingOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*model.PricingOutput)
	return out, args.Error(1)
}

type failingStore struct {
	err error
}

func (s *failingStore) Put(context.Context, *model.BidRecord) error { return s.err }

func (s *failingStore) Get(context.Context, string) (*model.BidRecord, error) { return nil, s.err }

func (s *failingStore) Migrate(context.Context) error { return nil }

func (s *failingStore) Close() error { return nil }
