package extract

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/bid-sniper/internal/llm"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Name() string { return "mock" }

func (m *mockGenerator) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
