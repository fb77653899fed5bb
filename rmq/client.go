package rmq

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"text2phenotype.com/sdoh/logger"
)

type Config struct {
	Host        string `envconfig:"MDL_COMN_RMQ_HOST" required:"true"`
	Port        string `envconfig:"MDL_COMN_RMQ_PORT" required:"true"`
	Username    string `envconfig:"MDL_COMN_RMQ_USERNAME" required:"true"`
	Password    string `envconfig:"MDL_COMN_RMQ_PASSWORD" required:"true"`
	Exchange    string `envconfig:"MDL_COMN_RMQ_DEFAULT_EXCHANGE" default:"text2phenotype-default-exchange"`
	EventsQueue string `envconfig:"MDL_COMN_SCREENING_EVENTS_QUEUE" default:"sdoh-screening-events"`
}

// Client publishes screening events. ChanErrors yields once the channel is
// closed by the broker; callers are expected to build a new client then.
type Client struct {
	ChanErrors <-chan *amqp.Error
	config     Config
	conn       *amqp.Connection
	channel    *amqp.Channel
	rmqLogger  *zerolog.Logger
}

func NewClient() (*Client, error) {
	rmqLogger := logger.NewLogger("RMQ client")
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		rmqLogger.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	conn, channel, err := setup(getURL(config))
	if err != nil {
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	if _, err = channel.QueueDeclare(
		config.EventsQueue, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err = channel.QueueBind(
		config.EventsQueue,
		config.EventsQueue,
		config.Exchange,
		false,
		nil); err != nil {
		_ = conn.Close()
		return nil, err
	}
	rmqLogger.Info().Str("queue", config.EventsQueue).Msg("Connected")

	return &Client{
		ChanErrors: channel.NotifyClose(make(chan *amqp.Error, 1)),
		config:     config,
		conn:       conn,
		channel:    channel,
		rmqLogger:  &rmqLogger,
	}, nil
}

func (c *Client) Publish(msg amqp.Publishing) error {
	return c.channel.Publish(
		c.config.Exchange,
		c.config.EventsQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	c.rmqLogger.Info().Msg("Closing client")
	_ = c.conn.Close()
}

func getURL(config Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s", config.Username, config.Password, config.Host, config.Port)
}

func setup(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
