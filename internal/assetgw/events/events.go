/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Shopify/sarama"
	"github.com/hyperledger/fabric-asset-gateway/common/flogging"
	"github.com/pkg/errors"
)

var logger = flogging.MustGetLogger("events")

// Event describes a committed asset transaction.
type Event struct {
	TransactionID string    `json:"txId"`
	Function      string    `json:"function"`
	AssetID       string    `json:"assetId,omitempty"`
	BlockNumber   uint64    `json:"blockNumber"`
	Timestamp     time.Time `json:"timestamp"`
}

//go:generate counterfeiter -o fakes/publisher.go -fake-name Publisher . Publisher

// Publisher delivers commit events to interested parties.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// KafkaConfig configures a KafkaPublisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	// Version is the Kafka protocol version, e.g. "1.0.0".
	Version string
	// RetryMax bounds producer retries of a failed send.
	RetryMax int
}

// KafkaPublisher writes events as JSON to a Kafka topic, keyed by asset ID.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher connects a synchronous producer to the configured
// brokers.
func NewKafkaPublisher(config KafkaConfig) (*KafkaPublisher, error) {
	if len(config.Brokers) == 0 {
		return nil, errors.New("at least one Kafka broker is required")
	}
	if config.Topic == "" {
		return nil, errors.New("a Kafka topic is required")
	}

	saramaConfig, err := newSaramaConfig(config)
	if err != nil {
		return nil, err
	}

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create Kafka producer for brokers %v", config.Brokers)
	}

	logger.Infof("Publishing commit events to Kafka topic %s", config.Topic)
	return NewKafkaPublisherWithProducer(producer, config.Topic), nil
}

func newSaramaConfig(config KafkaConfig) (*sarama.Config, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = "assetgw"
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	if config.RetryMax > 0 {
		saramaConfig.Producer.Retry.Max = config.RetryMax
	}
	if config.Version != "" {
		version, err := sarama.ParseKafkaVersion(config.Version)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid Kafka version '%s'", config.Version)
		}
		saramaConfig.Version = version
	}
	if err := saramaConfig.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid Kafka producer configuration")
	}
	return saramaConfig, nil
}

// NewKafkaPublisherWithProducer creates a KafkaPublisher around an existing
// producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (k *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	message := &sarama.ProducerMessage{
		Topic: k.topic,
		Value: sarama.ByteEncoder(value),
	}
	if event.AssetID != "" {
		message.Key = sarama.StringEncoder(event.AssetID)
	}

	partition, offset, err := k.producer.SendMessage(message)
	if err != nil {
		return errors.Wrapf(err, "failed to publish event for transaction %s", event.TransactionID)
	}
	logger.Debugw("Published commit event", "txID", event.TransactionID, "topic", k.topic, "partition", partition, "offset", offset)
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.producer.Close()
}
