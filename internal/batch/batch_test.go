package batch

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrofitdev/retrofit/internal/types"
)

func request(fileID string, severities ...types.Severity) types.TransformationRequest {
	refs := make([]types.RuleRef, len(severities))
	for i, s := range severities {
		refs[i] = types.RuleRef{RuleID: fmt.Sprintf("rule-%d", i), Severity: s}
	}
	return types.TransformationRequest{FileID: fileID, Rules: refs}
}

func TestPlanPartitionsInOrder(t *testing.T) {
	// 23 requests with batch size 10 yield batches of 10, 10, 3 and the
	// original order survives within and across batches.
	requests := make([]types.TransformationRequest, 23)
	for i := range requests {
		requests[i] = request(fmt.Sprintf("file-%02d.ts", i), types.SeverityLow)
	}

	batches, err := Plan(requests, 10)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].Requests, 10)
	assert.Len(t, batches[1].Requests, 10)
	assert.Len(t, batches[2].Requests, 3)

	var got []string
	for _, b := range batches {
		got = append(got, b.FileIDs()...)
	}
	for i, id := range got {
		assert.Equal(t, fmt.Sprintf("file-%02d.ts", i), id)
	}
}

func TestPlanBatchIDsUnique(t *testing.T) {
	requests := []types.TransformationRequest{
		request("a.ts", types.SeverityLow),
		request("b.ts", types.SeverityLow),
	}
	batches, err := Plan(requests, 1)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.NotEmpty(t, batches[0].ID)
	assert.NotEqual(t, batches[0].ID, batches[1].ID)
}

func TestPlanPriorityTiers(t *testing.T) {
	tests := []struct {
		name     string
		requests []types.TransformationRequest
		want     types.PriorityTier
	}{
		{
			name: "all critical is high",
			requests: []types.TransformationRequest{
				request("a.ts", types.SeverityCritical, types.SeverityHigh),
			},
			want: types.TierHigh,
		},
		{
			name: "just over half is high",
			requests: []types.TransformationRequest{
				request("a.ts", types.SeverityHigh, types.SeverityHigh, types.SeverityLow),
			},
			want: types.TierHigh,
		},
		{
			name: "exactly half is medium",
			requests: []types.TransformationRequest{
				request("a.ts", types.SeverityHigh, types.SeverityLow),
			},
			want: types.TierMedium,
		},
		{
			name: "quarter is medium",
			requests: []types.TransformationRequest{
				request("a.ts", types.SeverityHigh, types.SeverityLow, types.SeverityLow, types.SeverityMedium),
			},
			want: types.TierMedium,
		},
		{
			name: "exactly a fifth is low",
			requests: []types.TransformationRequest{
				request("a.ts", types.SeverityHigh, types.SeverityLow, types.SeverityLow, types.SeverityLow, types.SeverityMedium),
			},
			want: types.TierLow,
		},
		{
			name: "no urgent refs is low",
			requests: []types.TransformationRequest{
				request("a.ts", types.SeverityLow, types.SeverityMedium),
			},
			want: types.TierLow,
		},
		{
			name:     "no refs at all is low",
			requests: []types.TransformationRequest{{FileID: "a.ts"}},
			want:     types.TierLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches, err := Plan(tt.requests, 10)
			require.NoError(t, err)
			require.Len(t, batches, 1)
			assert.Equal(t, tt.want, batches[0].PriorityTier)
		})
	}
}

func TestPlanEstimatedDuration(t *testing.T) {
	requests := []types.TransformationRequest{
		request("a.ts", types.SeverityLow),
		request("b.ts", types.SeverityLow),
		request("c.ts", types.SeverityLow),
	}
	batches, err := Plan(requests, 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 3*150*time.Millisecond, batches[0].EstimatedDuration)
}

func TestPlanEmptyInput(t *testing.T) {
	batches, err := Plan(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestPlanRejectsBadBatchSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := Plan([]types.TransformationRequest{request("a.ts")}, size)
		var vErr *types.ValidationError
		require.ErrorAs(t, err, &vErr)
	}
}
