package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client owns the process-wide MongoDB connection. It is created once at
// startup and handed to the repositories that need it.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
}

// Connect opens the connection pool and verifies the server answers a ping
// within timeout.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(20).
		SetConnectTimeout(timeout)

	c, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("creating mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	return &Client{client: c, database: c.Database(database)}, nil
}

// Database returns the handle for the configured database.
func (c *Client) Database() *mongo.Database {
	return c.database
}

// HealthCheck pings the primary.
func (c *Client) HealthCheck(ctx context.Context) bool {
	if c == nil || c.client == nil {
		return false
	}
	return c.client.Ping(ctx, readpref.Primary()) == nil
}

// Close gracefully disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}
