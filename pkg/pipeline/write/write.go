package write

import (
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/extract/aggregate"
	"github.com/argusobs/shadowit-pipeline/pkg/pipeline/transform"
)

// Batch is the complete output of one run. Writers receive it exactly once,
// after the whole batch is computed: there is no partial commit.
type Batch struct {
	Features []aggregate.FeatureRow
	Scores   []transform.ScoreRow
}

type Writer interface {
	Write(batch Batch) error
}
