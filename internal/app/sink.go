package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	kafkacompress "github.com/segmentio/kafka-go/compress"

	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/article"
	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/config"
	"github.com/WagonWheelz/TheLeagueWiki-LLM/internal/scraper"
)

func BuildSink(cfg config.Config) (scraper.Sink, func(), error) {
	switch cfg.Sink {
	case "none":
		return nopSink{}, func() {}, nil
	case "stdout":
		return stdoutSink{}, func() {}, nil
	case "kafka":
		if cfg.KafkaBroker == "" {
			return nil, nil, fmt.Errorf("kafka broker is not configured")
		}
		writer := kafka.NewWriter(kafka.WriterConfig{
			Brokers:          []string{cfg.KafkaBroker},
			Topic:            cfg.KafkaTopic,
			BatchTimeout:     time.Second,
			RequiredAcks:     int(kafka.RequireAll),
			CompressionCodec: &kafkacompress.SnappyCodec,
		})
		return kafkaSink{writer: writer}, func() { writer.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown sink %q", cfg.Sink)
	}
}

type kafkaSink struct {
	writer *kafka.Writer
}

func (k kafkaSink) Send(ctx context.Context, key, value []byte) error {
	return k.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value})
}

type nopSink struct{}

func (nopSink) Send(ctx context.Context, key, value []byte) error {
	return nil
}

type stdoutSink struct{}

func (stdoutSink) Send(ctx context.Context, key, value []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	var rec article.Record
	if err := json.Unmarshal(value, &rec); err != nil {
		fmt.Printf("stdout sink %s (%d bytes) decode error: %v\n", string(key), len(value), err)
		return nil
	}
	fmt.Printf("stdout sink %s (%d words):\n%s\n", string(key), rec.WordCount, rec.Content)
	return nil
}
