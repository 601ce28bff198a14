// Package importer ingests large candidate lists in fixed-size batches.
// Batches run sequentially to bound load on the store and keep progress
// monotonic; one batch failing never aborts the rest.
package importer

import (
	"context"
	"log/slog"

	"examreg/internal/student"
)

//go:generate mockgen -source=pipeline.go -destination=mocks/pipeline_mock.go -package=mocks

// BatchSubmitter writes one batch atomically: it either accepts every row or
// rejects the whole batch with an error.
type BatchSubmitter interface {
	SubmitBatch(ctx context.Context, profiles []student.Profile) (int, error)
}

// Progress reports completion after each batch so callers can render
// incremental progress for imports of thousands of rows.
type Progress struct {
	CompletedBatches int `json:"completed_batches"`
	TotalBatches     int `json:"total_batches"`
}

// RejectedRow names a pre-filtered row and why it was not submitted.
type RejectedRow struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Result aggregates one import run. FailedBatches holds zero-based indices;
// a caller retrying resubmits only the rows of those batches, not the whole
// set. Batches are never retried automatically.
type Result struct {
	TotalSubmitted int           `json:"total_submitted"`
	TotalAccepted  int           `json:"total_accepted"`
	TotalBatches   int           `json:"total_batches"`
	FailedBatches  []int         `json:"failed_batches"`
	Rejected       []RejectedRow `json:"rejected"`
}

// Pipeline partitions rows into batches and submits them one at a time.
type Pipeline struct {
	submitter  BatchSubmitter
	batchSize  int
	logger     *slog.Logger
	onProgress func(Progress)
}

type Option func(p *Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithProgress installs a callback invoked after every batch.
func WithProgress(fn func(Progress)) Option {
	return func(p *Pipeline) {
		p.onProgress = fn
	}
}

// NewPipeline constructs a Pipeline. batchSize caps rows per submission.
func NewPipeline(submitter BatchSubmitter, batchSize int, opts ...Option) *Pipeline {
	if batchSize <= 0 {
		batchSize = 200
	}
	p := &Pipeline{submitter: submitter, batchSize: batchSize, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Import pre-filters rows without a student id, then submits the remainder
// batch by batch. A failed batch is recorded and skipped; the remaining
// batches still run.
func (p *Pipeline) Import(ctx context.Context, rows []student.Profile) (*Result, error) {
	result := &Result{}

	submittable := make([]student.Profile, 0, len(rows))
	for i, row := range rows {
		if row.StudentID.IsZero() {
			result.Rejected = append(result.Rejected, RejectedRow{
				Index:  i,
				Reason: "missing student id",
			})
			continue
		}
		submittable = append(submittable, row)
	}

	batches := partition(submittable, p.batchSize)
	result.TotalBatches = len(batches)

	for index, batch := range batches {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.TotalSubmitted += len(batch)
		accepted, err := p.submitter.SubmitBatch(ctx, batch)
		if err != nil {
			result.FailedBatches = append(result.FailedBatches, index)
			p.logger.WarnContext(ctx, "import batch failed",
				"batch", index, "rows", len(batch), "error", err)
		} else {
			result.TotalAccepted += accepted
		}

		if p.onProgress != nil {
			p.onProgress(Progress{CompletedBatches: index + 1, TotalBatches: len(batches)})
		}
	}

	return result, nil
}

func partition(rows []student.Profile, size int) [][]student.Profile {
	if len(rows) == 0 {
		return nil
	}
	batches := make([][]student.Profile, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		batches = append(batches, rows[start:end])
	}
	return batches
}
