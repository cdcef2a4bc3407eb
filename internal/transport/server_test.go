package transport

import (
	"context"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	state map[string]map[string]any
}

func (p fakeProvider) DescribeMatchState(matchID string) (map[string]any, bool) {
	s, ok := p.state[matchID]
	return s, ok
}

func TestServer_DescribeMatchState_Found(t *testing.T) {
	s := New(fakeProvider{state: map[string]map[string]any{
		"match-1": {"roster": []any{"p1", "p2"}},
	}})

	req, err := structpb.NewStruct(map[string]any{"matchId": "match-1"})
	require.NoError(t, err)

	resp, err := s.DescribeMatchState(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, resp.GetFields(), "roster")
}

func TestServer_DescribeMatchState_NotFound(t *testing.T) {
	s := New(fakeProvider{state: map[string]map[string]any{}})

	req, err := structpb.NewStruct(map[string]any{"matchId": "no-such-match"})
	require.NoError(t, err)

	_, err = s.DescribeMatchState(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestServer_DescribeMatchState_MissingMatchID(t *testing.T) {
	s := New(fakeProvider{state: map[string]map[string]any{}})

	req, err := structpb.NewStruct(map[string]any{})
	require.NoError(t, err)

	_, err = s.DescribeMatchState(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
