package config

// GenericMap is the loosely typed representation of a row handed to writers.
type GenericMap map[string]interface{}
