// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package cache holds the Valkey theme cache and the in-process collage
// listing cache behind the asset endpoints.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// Valkey client timeouts.
const (
	valkeyDialTimeout = 3 * time.Second
	valkeyIOTimeout   = 2 * time.Second
	valkeyPingTimeout = 5 * time.Second
)

// ConnectValkey dials host:port and pings it once within ctx.
func ConnectValkey(ctx context.Context, host, port, password string) (*redis.Client, error) {
	addr := net.JoinHostPort(host, port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  valkeyDialTimeout,
		ReadTimeout:  valkeyIOTimeout,
		WriteTimeout: valkeyIOTimeout,
	})

	pctx, cancel := context.WithTimeout(ctx, valkeyPingTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping %s: %w", addr, err)
	}

	slog.Info("valkey connected", "addr", addr)
	return client, nil
}

// Pinger adapts a client to the health check.
type Pinger struct {
	Client *redis.Client
}

// PingContext reports whether Valkey answers.
func (p Pinger) PingContext(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}
