package submission

import (
	"encoding/json"

	"github.com/streadway/amqp"
	"text2phenotype.com/sdoh/rmq"
)

type rmqTransactions interface {
	publishEvent(event Event) error
}

type rmqClientWrapper struct {
	rmqClient *rmq.Client
}

func (wrapper *rmqClientWrapper) publishEvent(event Event) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return wrapper.rmqClient.Publish(amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Type:         event.Type,
		Timestamp:    event.SubmittedAt,
		Body:         b,
	})
}
