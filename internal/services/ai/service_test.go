package ai_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/ai"
	mockai "github.com/KirkDiggler/trpg-session-engine/internal/services/ai/mock"
)

type ServiceTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	generator *mockai.MockGenerator
	svc       ai.Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.generator = mockai.NewMockGenerator(s.ctrl)
	s.svc = ai.NewService(&ai.ServiceConfig{
		Generator: s.generator,
		Timeout:   50 * time.Millisecond,
	})
}

func (s *ServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func narrationRequest() *ai.Request {
	return &ai.Request{
		Type:         ai.RequestGMNarration,
		SystemPrompt: "you are the gm",
		Context:      `{"playerAction": "look around"}`,
	}
}

// blockUntilDone simulates a provider that only returns when its context ends
func blockUntilDone(ctx context.Context, _ *ai.GenerateInput) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (s *ServiceTestSuite) TestRequest_Narration() {
	s.generator.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *ai.GenerateInput) (string, error) {
			s.Equal("you are the gm", input.SystemPrompt)
			s.False(input.JSON)
			return `{"response": "The corridor is empty."}`, nil
		})

	resp, err := s.svc.Request(context.Background(), narrationRequest())
	s.Require().NoError(err)
	s.Equal(&ai.NarrationResponse{Text: "The corridor is empty."}, resp)
}

func (s *ServiceTestSuite) TestRequest_TimeoutRetriesOnce() {
	gomock.InOrder(
		s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(blockUntilDone),
		s.generator.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(`{"response": "late but fine"}`, nil),
	)

	resp, err := s.svc.Request(context.Background(), narrationRequest())
	s.Require().NoError(err)
	s.Equal("late but fine", resp.(*ai.NarrationResponse).Text)
}

func (s *ServiceTestSuite) TestRequest_TimeoutTwiceSurfaces() {
	s.generator.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(blockUntilDone).
		Times(2)

	_, err := s.svc.Request(context.Background(), narrationRequest())
	s.Require().Error(err)
	s.Equal(dnderr.CodeAITimeout, dnderr.GetCode(err))
}

func (s *ServiceTestSuite) TestRequest_ValidationFailureNotRetried() {
	s.generator.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Return(`{}`, nil).
		Times(1)

	_, err := s.svc.Request(context.Background(), narrationRequest())
	s.Require().Error(err)
	s.Equal(dnderr.CodeMissingNarration, dnderr.GetCode(err))
}

func (s *ServiceTestSuite) TestRequest_ProviderErrorIsUnavailable() {
	s.generator.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		Return("", errors.New("503 from provider")).
		Times(1)

	_, err := s.svc.Request(context.Background(), narrationRequest())
	s.Require().Error(err)
	s.Equal(dnderr.CodeUnavailable, dnderr.GetCode(err))
}

func (s *ServiceTestSuite) TestRequest_CancelledContextDiscards() {
	ctx, cancel := context.WithCancel(context.Background())
	s.generator.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(c context.Context, input *ai.GenerateInput) (string, error) {
			cancel()
			return blockUntilDone(c, input)
		})

	_, err := s.svc.Request(ctx, narrationRequest())
	s.Require().Error(err)
	s.Equal(dnderr.CodeSessionEnded, dnderr.GetCode(err))
}

func (s *ServiceTestSuite) TestRequest_BatchTypeRequiresBatch() {
	s.generator.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input *ai.GenerateInput) (string, error) {
			s.True(input.JSON)
			return `{"response": "everyone waits"}`, nil
		})

	_, err := s.svc.Request(context.Background(), &ai.Request{Type: ai.RequestNPCBatch})
	s.Require().Error(err)
	s.Equal(dnderr.CodeMissingBatchPayload, dnderr.GetCode(err))
}

func TestNewService_RequiresGenerator(t *testing.T) {
	assert.Panics(t, func() {
		ai.NewService(&ai.ServiceConfig{})
	})
}

func TestRequest_NilRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := ai.NewService(&ai.ServiceConfig{Generator: mockai.NewMockGenerator(ctrl)})

	_, err := svc.Request(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, dnderr.IsInvalidArgument(err))
}
