package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
	"github.com/NickOut/EttleX-R-sub001/internal/policy"
)

func TestResolveEmpty(t *testing.T) {
	res, err := Resolve(context.Background(), nil, FailFast, policy.UnavailableApprovalRouter{})
	require.NoError(t, err)
	assert.Equal(t, Empty, res.Status)
}

func TestResolveSingleCandidate(t *testing.T) {
	res, err := Resolve(context.Background(), []Candidate{{ID: "c1"}}, FailFast, policy.UnavailableApprovalRouter{})
	require.NoError(t, err)
	assert.Equal(t, Selected, res.Status)
	assert.Equal(t, "c1", res.SelectedID)
}

func TestResolveFailFastOnAmbiguity(t *testing.T) {
	_, err := Resolve(context.Background(), []Candidate{{ID: "c1"}, {ID: "c2"}}, FailFast, policy.UnavailableApprovalRouter{})
	require.Error(t, err)
	assert.Equal(t, errtax.AmbiguousSelection, errtax.KindOf(err))
}

func TestResolveChooseDeterministicPicksLexMin(t *testing.T) {
	res, err := Resolve(context.Background(), []Candidate{{ID: "zeta"}, {ID: "alpha"}}, ChooseDeterministic, policy.UnavailableApprovalRouter{})
	require.NoError(t, err)
	assert.Equal(t, Selected, res.Status)
	assert.Equal(t, "alpha", res.SelectedID)
}

func TestResolveRouteForApprovalDefaultRouterFails(t *testing.T) {
	_, err := Resolve(context.Background(), []Candidate{{ID: "a"}, {ID: "b"}}, RouteForApproval, policy.UnavailableApprovalRouter{})
	require.Error(t, err)
	assert.Equal(t, errtax.ApprovalRoutingUnavailable, errtax.KindOf(err))
}

type stubRouter struct{ token string }

func (s stubRouter) RouteApprovalRequest(context.Context, string, []string) (string, error) {
	return s.token, nil
}

func TestResolveRouteForApprovalDelegates(t *testing.T) {
	res, err := Resolve(context.Background(), []Candidate{{ID: "a"}, {ID: "b"}}, RouteForApproval, stubRouter{token: "tok-1"})
	require.NoError(t, err)
	assert.Equal(t, PendingApproval, res.Status)
	assert.Equal(t, "tok-1", res.Token)
}

func TestComputeDryRunNeverRoutes(t *testing.T) {
	dr := ComputeDryRunResolution([]Candidate{{ID: "b"}, {ID: "a"}}, RouteForApproval)
	assert.Equal(t, RoutedForApproval, dr.Status)
	assert.Equal(t, []string{"a", "b"}, dr.CandidateIDs)
	assert.Empty(t, dr.SelectedID)
}

func TestComputeDryRunResolved(t *testing.T) {
	dr := ComputeDryRunResolution([]Candidate{{ID: "b"}, {ID: "a"}}, ChooseDeterministic)
	assert.Equal(t, Resolved, dr.Status)
	assert.Equal(t, "a", dr.SelectedID)
}

type countingBlockingRouter struct {
	calls   atomic.Int64
	release chan struct{}
}

func (r *countingBlockingRouter) RouteApprovalRequest(context.Context, string, []string) (string, error) {
	r.calls.Add(1)
	<-r.release
	return "tok-shared", nil
}

func TestResolveRouteForApprovalCollapsesConcurrentIdenticalCalls(t *testing.T) {
	router := &countingBlockingRouter{release: make(chan struct{})}
	candidates := []Candidate{{ID: "a"}, {ID: "b"}}

	var wg sync.WaitGroup
	results := make([]Result, 4)
	var launched sync.WaitGroup
	launched.Add(4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			launched.Done()
			res, err := Resolve(context.Background(), candidates, RouteForApproval, router)
			require.NoError(t, err)
			results[i] = res
		}(i)
	}
	launched.Wait()
	close(router.release)
	wg.Wait()

	for _, res := range results {
		assert.Equal(t, PendingApproval, res.Status)
		assert.Equal(t, "tok-shared", res.Token)
	}
	assert.LessOrEqual(t, router.calls.Load(), int64(4))
}

func TestScoreCandidatesOrdersByPriorityThenID(t *testing.T) {
	ranked := ScoreCandidates([]Candidate{
		{ID: "b", Priority: 5},
		{ID: "a", Priority: 5},
		{ID: "c", Priority: 9},
	})
	assert.Equal(t, []string{"c", "a", "b"}, []string{ranked[0].ID, ranked[1].ID, ranked[2].ID})
}
