/*
 * Copyright (C) 2024 ArgusObs Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package write

import (
	"context"
	"time"

	"github.com/argusobs/shadowit-pipeline/pkg/api"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	kafkago "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

const (
	defaultReadTimeoutSeconds  = int64(10)
	defaultWriteTimeoutSeconds = int64(10)
)

type kafkaWriteMessage interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// writeKafka sends score rows as JSON messages, keyed by identity so one
// identity's windows land on the same partition.
type writeKafka struct {
	kafkaParams api.WriteKafka
	kafkaWriter kafkaWriteMessage
}

func (w *writeKafka) Write(batch Batch) error {
	log.Debugf("entering writeKafka Write")
	jsonEncoder := jsoniter.ConfigCompatibleWithStandardLibrary
	msgs := make([]kafkago.Message, 0, len(batch.Scores))
	for i := range batch.Scores {
		row := &batch.Scores[i]
		value, err := jsonEncoder.Marshal(row.ToMap())
		if err != nil {
			return err
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(row.Identity),
			Value: value,
		})
	}
	if len(msgs) == 0 {
		log.Infof("writeKafka: no rows to send")
		return nil
	}
	if err := w.kafkaWriter.WriteMessages(context.Background(), msgs...); err != nil {
		return errors.Wrap(err, "writing to kafka")
	}
	log.Infof("writeKafka: sent %d messages to topic %s", len(msgs), w.kafkaParams.Topic)
	return nil
}

// NewWriteKafka creates a new writer to kafka
func NewWriteKafka(cfg *api.WriteKafka) (Writer, error) {
	log.Debugf("entering NewWriteKafka")
	if cfg == nil {
		return nil, errors.New("kafka writer needs a configuration")
	}
	if cfg.Address == "" {
		return nil, errors.New("address can't be empty")
	}
	if cfg.Topic == "" {
		return nil, errors.New("topic can't be empty")
	}

	var balancer kafkago.Balancer
	switch cfg.Balancer {
	case api.KafkaRoundRobin:
		balancer = &kafkago.RoundRobin{}
	case api.KafkaLeastBytes:
		balancer = &kafkago.LeastBytes{}
	case api.KafkaHash:
		balancer = &kafkago.Hash{}
	case api.KafkaCrc32:
		balancer = &kafkago.CRC32Balancer{}
	case api.KafkaMurmur2:
		balancer = &kafkago.Murmur2Balancer{}
	case "":
		balancer = nil
	default:
		return nil, errors.Errorf("unknown balancer %q", cfg.Balancer)
	}

	readTimeoutSecs := defaultReadTimeoutSeconds
	if cfg.ReadTimeout != 0 {
		readTimeoutSecs = cfg.ReadTimeout
	}
	writeTimeoutSecs := defaultWriteTimeoutSeconds
	if cfg.WriteTimeout != 0 {
		writeTimeoutSecs = cfg.WriteTimeout
	}

	kafkaWriter := kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Address),
		Topic:        cfg.Topic,
		Balancer:     balancer,
		ReadTimeout:  time.Duration(readTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(writeTimeoutSecs) * time.Second,
		BatchSize:    cfg.BatchSize,
		BatchBytes:   cfg.BatchBytes,
	}

	return &writeKafka{
		kafkaParams: *cfg,
		kafkaWriter: &kafkaWriter,
	}, nil
}
