package api

type ExtractFeatures struct {
	Window         string   `yaml:"window,omitempty" json:"window,omitempty" doc:"aggregation window, a positive integer with unit s/m/h/d (examples: 30s, 5m, 1h)"`
	Site           string   `yaml:"site,omitempty" json:"site,omitempty" doc:"site label stamped into every feature row"`
	FeatureVersion string   `yaml:"featureVersion,omitempty" json:"featureVersion,omitempty" doc:"feature version label stored in output rows"`
	CloudASNs      []string `yaml:"cloudASNs,omitempty" json:"cloudASNs,omitempty" doc:"list of ASNs designated as cloud/SaaS providers"`
	CloudASNFile   string   `yaml:"cloudASNFile,omitempty" json:"cloudASNFile,omitempty" doc:"optional file with one cloud ASN per line; lines starting with # are ignored"`
}

func GetExtractFeaturesDefaults() ExtractFeatures {
	return ExtractFeatures{
		Window:         "5m",
		Site:           "default-site",
		FeatureVersion: "shadowit-v1",
	}
}
