package api

type DatasetTarget string

const (
	DatasetTargetFeatures DatasetTarget = "features" // write the finalized feature rows
	DatasetTargetScores   DatasetTarget = "scores"   // write the score rows
)

type WriteDataset struct {
	OutputRoot string        `yaml:"outputRoot" json:"outputRoot" doc:"root directory of the partitioned JSON-lines dataset"`
	Target     DatasetTarget `yaml:"target,omitempty" json:"target,omitempty" doc:"(enum) which rows to write: features or scores (default: scores)"`
}

func GetWriteDatasetDefaults() WriteDataset {
	return WriteDataset{
		Target: DatasetTargetScores,
	}
}
