package api

// TransformScore describes configuration for the risk scoring stage. The
// model file, when present, is merged key-wise onto the built-in default
// model: individual weights/scales/reason codes override their default
// entry, default entries not mentioned are preserved.
type TransformScore struct {
	ModelFile    string `yaml:"modelFile,omitempty" json:"modelFile,omitempty" doc:"JSON file with model weights/scales/thresholds overrides"`
	ModelVersion string `yaml:"modelVersion,omitempty" json:"modelVersion,omitempty" doc:"override of the model version label"`
}
