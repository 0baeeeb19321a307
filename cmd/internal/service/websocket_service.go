package service

import (
	"context"

	"notesweb/cmd/internal/contract"
	"notesweb/cmd/internal/domain/entity"
	"notesweb/cmd/internal/domain/events"
	"notesweb/cmd/internal/infrastructure/aws/websocket"
	"notesweb/cmd/internal/utils"
	"notesweb/cmd/internal/utils/apierror"

	"github.com/labstack/gommon/log"
)

type ConnectionRepository interface {
	Save(conn *entity.Connection) error
	Delete(connID string) error
	FindByUserID(userID int64) ([]string, error)
	FindExpired(now int64) ([]*entity.Connection, error)
	UpdateHeartbeat(connID string, now int64) error
}

type WebSocketService struct {
	ConnRepo ConnectionRepository
	Gateway  websocket.GatewayClient
}

func NewWebSocketService(repo ConnectionRepository, gateway websocket.GatewayClient) *WebSocketService {
	return &WebSocketService{
		ConnRepo: repo,
		Gateway:  gateway,
	}
}

func (s *WebSocketService) RegisterConnection(userID int64, connectionID string, exp int64) apierror.ErrorResponse {
	if connectionID == "" {
		return apierror.MissingConnectionIDError
	}

	now := utils.NowUTC()
	conn := &entity.Connection{
		ConnectionID:    connectionID,
		UserID:          userID,
		ExpiresAt:       exp * 1000, // "exp" is stored in seconds, our app uses millis
		LastHeartbeatAt: now,        // Avoid users getting disconnected immediately
		CreatedAt:       now,
	}

	if err := s.ConnRepo.Save(conn); err != nil {
		log.Errorf("failed to save connection: %v", err)
		return apierror.InternalServerError
	}
	return nil
}

func (s *WebSocketService) RemoveConnection(connectionID string) {
	// We don't return error here because if it fails, it's not the client's fault
	_ = s.ConnRepo.Delete(connectionID)
}

func (s *WebSocketService) HandleMessage(ctx context.Context, msg *contract.IncomingSocketMessage, connID string) {
	switch msg.Type {
	case contract.EventPing:
		s.handlePing(ctx, connID)
	default:
		log.Debugf("ignoring socket message %q from %s", msg.Type, connID)
	}
}

// Dispatch sends evt to every live connection of the user.
func (s *WebSocketService) Dispatch(ctx context.Context, userID int64, evt events.SocketEvent) {
	conns, err := s.ConnRepo.FindByUserID(userID)
	if err != nil {
		log.Errorf("failed to fetch connections for user %d: %v", userID, err)
		return
	}

	envelope := &contract.OutgoingSocketMessage{
		Type: evt.GetType(),
		Data: evt,
	}
	for _, connID := range conns {
		// We ignore errors here so one stale connection doesn't block others
		_ = s.Gateway.PostToConnection(ctx, connID, envelope)
	}
}

// CloseUserConnections tells every connection of the user that the session is
// over and drops them.
func (s *WebSocketService) CloseUserConnections(ctx context.Context, userID int64) {
	conns, err := s.ConnRepo.FindByUserID(userID)
	if err != nil {
		log.Errorf("failed to fetch connections for user %d: %v", userID, err)
		return
	}

	for _, connID := range conns {
		s.ExpireConnection(ctx, connID)
	}
}

// ExpireConnection sends SESSION_EXPIRED so the client does not try to
// reconnect, then closes the connection on the gateway and forgets it.
func (s *WebSocketService) ExpireConnection(ctx context.Context, connID string) {
	_ = s.Gateway.PostToConnection(ctx, connID, &contract.OutgoingSocketMessage{
		Type: contract.EventSessionExpired,
		Data: &events.SessionExpired{},
	})
	_ = s.Gateway.DeleteConnection(ctx, connID)
	_ = s.ConnRepo.Delete(connID)
}

func (s *WebSocketService) handlePing(ctx context.Context, connID string) {
	if err := s.ConnRepo.UpdateHeartbeat(connID, utils.NowUTC()); err != nil {
		log.Errorf("failed to update heartbeat: %v", err)
		return
	}

	if err := s.Gateway.PostToConnection(ctx, connID, &contract.OutgoingSocketMessage{Type: contract.EventAck}); err != nil {
		log.Errorf("failed to post ack to conn %s: %v", connID, err)
	}
}
