package api

type KafkaEncodeBalancerName string

const (
	KafkaRoundRobin KafkaEncodeBalancerName = "roundRobin" // RoundRobin balancer
	KafkaLeastBytes KafkaEncodeBalancerName = "leastBytes" // LeastBytes balancer
	KafkaHash       KafkaEncodeBalancerName = "hash"       // Hash balancer
	KafkaCrc32      KafkaEncodeBalancerName = "crc32"      // Crc32 balancer
	KafkaMurmur2    KafkaEncodeBalancerName = "murmur2"    // Murmur2 balancer
)

type WriteKafka struct {
	Address      string                  `yaml:"address" json:"address" doc:"address of kafka server"`
	Topic        string                  `yaml:"topic" json:"topic" doc:"kafka topic receiving score rows"`
	Balancer     KafkaEncodeBalancerName `yaml:"balancer,omitempty" json:"balancer,omitempty" doc:"(enum) one of the balancer names"`
	WriteTimeout int64                   `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty" doc:"timeout (in seconds) for write operation performed by the Writer"`
	ReadTimeout  int64                   `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty" doc:"timeout (in seconds) for read operation performed by the Writer"`
	BatchBytes   int64                   `yaml:"batchBytes,omitempty" json:"batchBytes,omitempty" doc:"limit the maximum size of a request in bytes before being sent to a partition"`
	BatchSize    int                     `yaml:"batchSize,omitempty" json:"batchSize,omitempty" doc:"limit on how many messages will be buffered before being sent to a partition"`
}
