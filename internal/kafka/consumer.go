package kafka

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/segmentio/kafka-go"

	"emergency-service/internal/logging"
	"emergency-service/internal/models"
)

// Intake is what the consumer feeds; implemented by service.Service.
type Intake interface {
	QueueReport(create models.SymptomReportCreate)
}

// Consumer reads symptom reports published by upstream collaborators (mobile
// gateway, IVR bridge) and feeds them to the intake queue.
type Consumer struct {
	reader *kafka.Reader
	intake Intake
	logger *logging.Logger
}

func NewConsumer(broker, topic, groupID string, intake Intake, logger *logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{broker},
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, intake: intake, logger: logger}
}

// Start consumes until ctx is cancelled. Malformed messages are logged and
// skipped; the stream never stops on a bad payload.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer c.reader.Close()

		c.logger.Infof("kafka consumer started on topic %s", c.reader.Config().Topic)
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.Infof("kafka consumer stopped")
					return
				}
				c.logger.Errorf("kafka read failed: %v", err)
				continue
			}

			var create models.SymptomReportCreate
			if err := json.Unmarshal(msg.Value, &create); err != nil {
				c.logger.Errorf("malformed symptom report at offset %d: %v", msg.Offset, err)
				continue
			}
			if err := create.Validate(); err != nil {
				c.logger.Errorf("invalid symptom report at offset %d: %v", msg.Offset, err)
				continue
			}
			c.intake.QueueReport(create)
		}
	}()
}
