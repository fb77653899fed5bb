package screenings

import (
	"context"
	"time"

	"github.com/kelseyhightower/envconfig"
	"text2phenotype.com/sdoh/redis"
)

const ScreeningsDB redis.DB = 0

type Config struct {
	// TTL is how long a freshly issued token stays valid.
	TTL time.Duration `envconfig:"SDOH_SCREENING_TTL" default:"168h"`
	// Retention keeps records readable after expiry so that late visits see
	// "expired" instead of an unknown token.
	Retention time.Duration `envconfig:"SDOH_SCREENING_RETENTION" default:"720h"`
}

type documents interface {
	GetRaw(ctx context.Context, redisKey string) ([]byte, error)
	SaveRaw(ctx context.Context, redisKey string, b []byte, ttl time.Duration) error
	UpdateRaw(ctx context.Context, redisKey string, updateFunc func(current []byte) ([]byte, error)) error
	Close() error
}

type Client struct {
	client documents
	config Config
	now    func() time.Time
}

// NewClient connects to the screenings database using the MDL_COMN_REDIS_*
// environment.
func NewClient() (*Client, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, err
	}
	redisClient, err := redis.NewClient(ScreeningsDB)
	if err != nil {
		return nil, err
	}
	return New(&redisClient, config), nil
}

func New(client documents, config Config) *Client {
	return &Client{client: client, config: config, now: time.Now}
}

func (client *Client) Close() {
	_ = client.client.Close()
}

func recordKey(token string) string {
	return "screening:" + token
}
