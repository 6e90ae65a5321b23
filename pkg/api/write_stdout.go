package api

type WriteStdout struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty" doc:"output format: text or json (default: text)"`
}
