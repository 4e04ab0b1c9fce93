package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jarvisluke416/TripleTry/internal/apperror"
	"github.com/jarvisluke416/TripleTry/internal/entity"
)

func (that *Server) handleJoinRoom(ctx context.Context, c *client, message *Message) error {
	log := that.logger.With("method", "handleJoinRoom", "playerID", c.id)

	var payload JoinRoomPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.RoomID == "" {
		return that.sendError(c, "roomId is required")
	}

	if c.roomID != "" && c.roomID != payload.RoomID {
		return that.sendError(c, "already in a room")
	}

	name := payload.PlayerName
	if name == "" {
		name = "Player_" + c.id[:4]
	}

	c.name = name
	c.roomID = payload.RoomID
	that.register(c)

	isFirst, err := that.rooms.Join(ctx, payload.RoomID, &entity.Player{ID: c.id, Name: name})
	if err != nil {
		log.Error("failed to join room", "roomID", payload.RoomID, "error", err)
		return that.sendError(c, "failed to join room")
	}

	log.Info("player joined room", "roomID", payload.RoomID, "name", name, "first", isFirst)

	return nil
}

func (that *Server) handleSubmitGrid(ctx context.Context, c *client, message *Message) error {
	var payload SubmitGridPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	err := that.rooms.SubmitGrid(ctx, payload.RoomID, payload.Grid)

	switch {
	case errors.Is(err, apperror.ErrGridAlreadySet):
		return that.sendError(c, "grid was already submitted")
	case errors.Is(err, apperror.ErrBadGridShape):
		return that.sendError(c, "grid has the wrong shape")
	case err != nil:
		return fmt.Errorf("failed to submit grid: %w", err)
	}

	return nil
}

func (that *Server) handleFlipCard(ctx context.Context, c *client, message *Message) error {
	var payload FlipCardPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return that.relayOutcome(c, that.rooms.FlipCard(ctx, payload.RoomID, c.id, payload.CardIndex))
}

func (that *Server) handlePassTurn(ctx context.Context, c *client, message *Message) error {
	var payload PassTurnPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return that.relayOutcome(c, that.rooms.PassTurn(ctx, payload.RoomID, c.id))
}

func (that *Server) handleWordGuess(ctx context.Context, c *client, message *Message) error {
	var payload GuessPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.Guess == "" {
		return that.sendError(c, "guess is required")
	}

	return that.relayOutcome(c, that.rooms.GuessWord(ctx, payload.RoomID, c.id, payload.Guess))
}

func (that *Server) handleImageGuess(ctx context.Context, c *client, message *Message) error {
	var payload GuessPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.Guess == "" {
		return that.sendError(c, "guess is required")
	}

	return that.relayOutcome(c, that.rooms.GuessImage(ctx, payload.RoomID, c.id, payload.Guess))
}

// relayOutcome - protocol violations become targeted notices to the
// offending connection only; everything else is an internal error.
func (that *Server) relayOutcome(c *client, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperror.ErrNotYourTurn):
		return that.send(c, entity.ActionNotYourTurn, nil)
	case errors.Is(err, apperror.ErrWordAlreadyFound):
		return that.sendError(c, "that word was already found")
	case errors.Is(err, apperror.ErrGridNotReady):
		return that.sendError(c, "the game has not started yet")
	case errors.Is(err, apperror.ErrGameFinished):
		return that.sendError(c, "the game is already over")
	case errors.Is(err, apperror.ErrRoomNotFound):
		return that.sendError(c, "room not found")
	default:
		return err
	}
}

func (that *Server) sendError(c *client, message string) error {
	return that.send(c, entity.ActionError, entity.ErrorPayload{Error: message})
}
