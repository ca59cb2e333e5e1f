package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/events"
	"github.com/kickwager/kickwager-api/internal/services"
)

// remoteScoring hands finalization to the scorer workers over NATS. Scoring
// happens there, together with cache invalidation and the scored event.
type remoteScoring struct {
	bus *events.Bus
}

func (r *remoteScoring) FinalizeGame(ctx context.Context, gameID uuid.UUID, homeScore, awayScore int) (*services.ScoringResult, error) {
	return r.request(ctx, events.FinalizeRequest{GameID: gameID, HomeScore: homeScore, AwayScore: awayScore})
}

func (r *remoteScoring) RescoreGame(ctx context.Context, gameID uuid.UUID, homeScore, awayScore int) (*services.ScoringResult, error) {
	return r.request(ctx, events.FinalizeRequest{GameID: gameID, HomeScore: homeScore, AwayScore: awayScore, Rescore: true})
}

func (r *remoteScoring) request(ctx context.Context, req events.FinalizeRequest) (*services.ScoringResult, error) {
	reply, err := r.bus.RequestFinalize(ctx, req)
	if err != nil {
		return nil, errors.InternalError("scorer unavailable", err).WithOperation("RemoteFinalize")
	}
	if err := replyError(reply); err != nil {
		return nil, err
	}
	return &services.ScoringResult{
		GameID:    req.GameID,
		HomeScore: req.HomeScore,
		AwayScore: req.AwayScore,
		Rescore:   req.Rescore,
	}, nil
}

// replyError turns a failed worker reply back into an application error with
// the worker's code
func replyError(reply *events.FinalizeReply) error {
	if reply.OK {
		return nil
	}
	code := reply.Code
	if code == "" {
		code = errors.ErrCodeInternalError
	}
	return errors.NewAppError(code, reply.Error, nil).WithOperation("RemoteFinalize")
}
