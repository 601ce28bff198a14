package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"examreg/internal/importer/mocks"
	"examreg/internal/student"
	"examreg/pkg/domain"
	dErrors "examreg/pkg/domain-errors"
)

func rows(n int, prefix string) []student.Profile {
	profiles := make([]student.Profile, n)
	for i := range profiles {
		profiles[i] = student.Profile{
			StudentID: domain.StudentID(prefixedID(prefix, i)),
			FullName:  "Student",
		}
	}
	return profiles
}

func prefixedID(prefix string, i int) string {
	return prefix + string(rune('A'+i/26)) + string(rune('A'+i%26))
}

func TestImportPartitionsSequentially(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockBatchSubmitter(ctrl)

	input := rows(5, "20")
	gomock.InOrder(
		submitter.EXPECT().SubmitBatch(gomock.Any(), input[0:2]).Return(2, nil),
		submitter.EXPECT().SubmitBatch(gomock.Any(), input[2:4]).Return(2, nil),
		submitter.EXPECT().SubmitBatch(gomock.Any(), input[4:5]).Return(1, nil),
	)

	var progress []Progress
	pipeline := NewPipeline(submitter, 2, WithProgress(func(p Progress) {
		progress = append(progress, p)
	}))

	result, err := pipeline.Import(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalSubmitted)
	assert.Equal(t, 5, result.TotalAccepted)
	assert.Equal(t, 3, result.TotalBatches)
	assert.Empty(t, result.FailedBatches)
	assert.Equal(t, []Progress{
		{CompletedBatches: 1, TotalBatches: 3},
		{CompletedBatches: 2, TotalBatches: 3},
		{CompletedBatches: 3, TotalBatches: 3},
	}, progress)
}

// Batch 2 of 3 fails; batches 1 and 3 must still commit.
func TestImportIsolatesFailedBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockBatchSubmitter(ctrl)

	input := rows(6, "21")
	gomock.InOrder(
		submitter.EXPECT().SubmitBatch(gomock.Any(), input[0:2]).Return(2, nil),
		submitter.EXPECT().SubmitBatch(gomock.Any(), input[2:4]).
			Return(0, dErrors.New(dErrors.CodeInternal, "store unavailable")),
		submitter.EXPECT().SubmitBatch(gomock.Any(), input[4:6]).Return(2, nil),
	)

	pipeline := NewPipeline(submitter, 2)
	result, err := pipeline.Import(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 6, result.TotalSubmitted)
	assert.Equal(t, 4, result.TotalAccepted)
	assert.Equal(t, []int{1}, result.FailedBatches)
}

func TestImportRejectsRowsWithoutStudentID(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockBatchSubmitter(ctrl)

	input := []student.Profile{
		{StudentID: "20000001", FullName: "A"},
		{FullName: "missing id"},
		{StudentID: "20000002", FullName: "B"},
	}
	submitter.EXPECT().SubmitBatch(gomock.Any(), gomock.Len(2)).Return(2, nil)

	pipeline := NewPipeline(submitter, 200)
	result, err := pipeline.Import(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalSubmitted)
	assert.Equal(t, 2, result.TotalAccepted)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 1, result.Rejected[0].Index)
	assert.Equal(t, "missing id", input[result.Rejected[0].Index].FullName)
}

func TestImportEmptyInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockBatchSubmitter(ctrl)

	pipeline := NewPipeline(submitter, 200)
	result, err := pipeline.Import(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, result.TotalSubmitted)
	assert.Zero(t, result.TotalBatches)
}

func TestImportStopsOnCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockBatchSubmitter(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	input := rows(4, "22")
	submitter.EXPECT().SubmitBatch(gomock.Any(), input[0:2]).DoAndReturn(
		func(context.Context, []student.Profile) (int, error) {
			cancel()
			return 2, nil
		})

	pipeline := NewPipeline(submitter, 2)
	result, err := pipeline.Import(ctx, input)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, result.TotalAccepted)
}
