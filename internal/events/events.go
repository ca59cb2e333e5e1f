package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/nats-io/nats.go"
)

// Subject suffixes appended to the configured prefix
const (
	FinalizeSubject = "games.finalize"
	ScoredSubject   = "games.scored"

	// ScorerQueue load-balances finalize requests across scorer workers
	ScorerQueue = "scorers"
)

// FinalizeRequest asks a scorer worker to finalize or rescore a game
type FinalizeRequest struct {
	GameID    uuid.UUID `json:"game_id"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	Rescore   bool      `json:"rescore"`
}

// FinalizeReply is the worker's answer to a FinalizeRequest
type FinalizeReply struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// GameScored is broadcast after a scoring transaction commits
type GameScored struct {
	GameID       uuid.UUID `json:"game_id"`
	HomeScore    int       `json:"home_score"`
	AwayScore    int       `json:"away_score"`
	BetsScored   int       `json:"bets_scored"`
	UsersUpdated int       `json:"users_updated"`
	Rescore      bool      `json:"rescore"`
	ScoredAt     time.Time `json:"scored_at"`
}

// Publisher announces scoring results
type Publisher interface {
	PublishGameScored(ctx context.Context, event GameScored) error
}

// Options configure the NATS connection
type Options struct {
	URL           string
	Token         string
	SubjectPrefix string
	Name          string
}

// Bus is a NATS connection with subject naming applied
type Bus struct {
	Conn   *nats.Conn
	prefix string
	logger logger.Logger
}

// Connect dials NATS
func Connect(opts Options, log logger.Logger) (*Bus, error) {
	if opts.URL == "" {
		opts.URL = nats.DefaultURL
	}
	if opts.Name == "" {
		opts.Name = "kickwager"
	}

	natsOpts := []nats.Option{
		nats.Name(opts.Name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if opts.Token != "" {
		natsOpts = append(natsOpts, nats.Token(opts.Token))
	}

	conn, err := nats.Connect(opts.URL, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &Bus{Conn: conn, prefix: opts.SubjectPrefix, logger: log}, nil
}

// Subject returns the fully qualified subject name
func (b *Bus) Subject(suffix string) string {
	if b.prefix == "" {
		return suffix
	}
	return b.prefix + "." + suffix
}

// PublishGameScored broadcasts a scoring result
func (b *Bus) PublishGameScored(ctx context.Context, event GameScored) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode game scored event: %w", err)
	}

	subject := b.Subject(ScoredSubject)
	if err := b.Conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// RequestFinalize sends a finalize request and waits for a worker reply
func (b *Bus) RequestFinalize(ctx context.Context, req FinalizeRequest) (*FinalizeReply, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode finalize request: %w", err)
	}

	msg, err := b.Conn.RequestWithContext(ctx, b.Subject(FinalizeSubject), payload)
	if err != nil {
		return nil, fmt.Errorf("finalize request failed: %w", err)
	}

	reply := &FinalizeReply{}
	if err := json.Unmarshal(msg.Data, reply); err != nil {
		return nil, fmt.Errorf("failed to decode finalize reply: %w", err)
	}
	return reply, nil
}

// FinalizeHandler processes one finalize request
type FinalizeHandler func(ctx context.Context, req FinalizeRequest) error

// ServeFinalize subscribes handler to finalize requests in the scorer queue
// group. Each request is answered with a FinalizeReply when a reply subject is
// present. codeOf maps handler errors to reply codes.
func (b *Bus) ServeFinalize(handler FinalizeHandler, codeOf func(error) string, timeout time.Duration) (*nats.Subscription, error) {
	subject := b.Subject(FinalizeSubject)

	sub, err := b.Conn.QueueSubscribe(subject, ScorerQueue, func(msg *nats.Msg) {
		reply := FinalizeReply{OK: true}

		var req FinalizeRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			b.logger.Error("Invalid finalize request", err, "subject", msg.Subject)
			reply = FinalizeReply{Code: "VALIDATION_ERROR", Error: "malformed finalize request"}
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			err := handler(ctx, req)
			cancel()
			if err != nil {
				reply = FinalizeReply{Code: codeOf(err), Error: err.Error()}
			}
		}

		if msg.Reply == "" {
			return
		}
		data, err := json.Marshal(reply)
		if err != nil {
			b.logger.Error("Failed to encode finalize reply", err)
			return
		}
		if err := msg.Respond(data); err != nil {
			b.logger.Error("Failed to respond to finalize request", err, "game_id", req.GameID.String())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return sub, nil
}

// Close drains the connection
func (b *Bus) Close() error {
	return b.Conn.Drain()
}

// Noop discards events when NATS is not configured
type Noop struct{}

func (Noop) PublishGameScored(context.Context, GameScored) error { return nil }
