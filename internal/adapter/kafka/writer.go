package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/indicacoes-heatmap/internal/config"
	"github.com/couchcryptid/indicacoes-heatmap/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes joined dashboard rows to a Kafka topic.
// It implements pipeline.Exporter.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured export topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaExportTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Export serializes every joined row of one render and publishes them in a
// single WriteMessages call. Rows are keyed by city so a city's history stays
// on one partition.
func (w *Writer) Export(ctx context.Context, meta domain.ExportMeta, rows []domain.JoinedCity) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(meta, rows[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.logger.Debug("joined rows published", "topic", w.writer.Topic, "rows", len(msgs), "render_id", meta.RenderID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// exportRecord is the message value for one joined city.
type exportRecord struct {
	City           string            `json:"city"`
	Quantity       float64           `json:"quantity"`
	Lat            *float64          `json:"lat,omitempty"`
	Lon            *float64          `json:"lon,omitempty"`
	HasCoordinates bool              `json:"has_coordinates"`
	Extra          map[string]string `json:"extra,omitempty"`
	Filter         string            `json:"filter"`
	RenderID       string            `json:"render_id"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// serializeToMessage marshals a joined city into a Kafka message.
func serializeToMessage(meta domain.ExportMeta, row domain.JoinedCity) (kafkago.Message, error) {
	rec := exportRecord{
		City:           row.City,
		Quantity:       row.Quantity,
		HasCoordinates: row.HasCoordinates(),
		Extra:          row.Extra,
		Filter:         meta.Filter,
		RenderID:       meta.RenderID,
		GeneratedAt:    meta.GeneratedAt,
	}
	if row.Geo != nil {
		rec.Lat, rec.Lon = &row.Geo.Lat, &row.Geo.Lon
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize joined city %q: %w", row.City, err)
	}
	return kafkago.Message{
		Key:   []byte(row.City),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "bracket", Value: []byte(meta.Filter)},
			{Key: "render_id", Value: []byte(meta.RenderID)},
			{Key: "generated_at", Value: []byte(meta.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
