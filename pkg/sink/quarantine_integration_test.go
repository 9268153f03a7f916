//go:build integration

package sink

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/javierturcios2607/ingestor/pkg/validate"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestRedisQuarantine_Integration_Add(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	q, err := NewRedisQuarantine(redisClient, "test:quarantine")
	if err != nil {
		t.Fatalf("NewRedisQuarantine() failed: %v", err)
	}
	ctx := context.Background()

	rejections := []validate.Rejection{
		{
			Record:  validate.Record{"id": 1002.0, "email": "no_at_sign.com"},
			Reasons: []validate.Reason{{Field: "customer_email", Message: "invalid format"}},
		},
		{
			Record: validate.Record{"id": 1003.0, "amount": -10.0},
			Reasons: []validate.Reason{
				{Field: "amount_usd", Message: "must be positive"},
				{Field: "transaction_date", Message: "in the future"},
			},
		},
	}

	for _, rej := range rejections {
		if err := q.Add(ctx, rej); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
	}

	n, err := q.Len(ctx)
	if err != nil {
		t.Fatalf("Len() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("quarantine length = %d, want 2", n)
	}

	// entries must round-trip with payload and reasons intact
	raw, err := redisClient.LRange(ctx, "test:quarantine", 0, -1).Result()
	if err != nil {
		t.Fatalf("LRange failed: %v", err)
	}

	var found bool
	for _, item := range raw {
		var rej validate.Rejection
		if err := json.Unmarshal([]byte(item), &rej); err != nil {
			t.Fatalf("quarantine entry is not valid JSON: %v", err)
		}
		for _, r := range rej.Reasons {
			if r.Field == "customer_email" {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected a quarantined entry with a customer_email reason")
	}
}
