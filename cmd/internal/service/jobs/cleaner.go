package jobs

import (
	"context"
	"time"

	"notesweb/cmd/internal/service"
	"notesweb/cmd/internal/utils"

	"github.com/labstack/gommon/log"
)

const ConnectionCleanInterval = 5 * time.Minute

type ConnectionCleaner struct {
	wsService *service.WebSocketService
}

func NewConnectionCleaner(wsService *service.WebSocketService) *ConnectionCleaner {
	return &ConnectionCleaner{wsService: wsService}
}

func (c *ConnectionCleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(ConnectionCleanInterval)
	defer ticker.Stop()

	log.Info("Connection cleaner cron started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping connection cleaner...")
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *ConnectionCleaner) cleanup() {
	conns, err := c.wsService.ConnRepo.FindExpired(utils.NowUTC())
	if err != nil {
		log.Errorf("Cleaner: failed to fetch expired connections: %v", err)
		return
	}

	if len(conns) == 0 {
		return
	}

	log.Infof("Cleaner: Found %d expired connections. Terminating...", len(conns))

	// Detached from the ticker's timing
	bgCtx := context.Background()
	for _, conn := range conns {
		c.wsService.ExpireConnection(bgCtx, conn.ConnectionID)
	}
}
