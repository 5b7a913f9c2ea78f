package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/borrelio/internal/client"
	"github.com/vovakirdan/borrelio/internal/log"
	"github.com/vovakirdan/borrelio/internal/proto"
	"github.com/vovakirdan/borrelio/internal/proximity"
)

var (
	flagRoom     string
	flagName     string
	flagWander   time.Duration
	flagLogLevel string
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join a room and stay until interrupted",
	Long: `Join a room as a headless participant. The participant publishes a
silent audio track, answers every call and walks one step at a time.

Examples:
  borrelio join --room lobby
  borrelio join --room lobby --name Ada --wander 0`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if flagRoom == "" {
			return client.ErrEmptyRoom
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runJoin(ctx, log.New(flagLogLevel))
	},
}

func init() {
	joinCmd.Flags().StringVarP(&flagRoom, "room", "r", "", "room to join")
	joinCmd.Flags().StringVarP(&flagName, "name", "n", "", "display name")
	joinCmd.Flags().DurationVar(&flagWander, "wander", 2*time.Second, "interval between random steps, 0 to stand still")
	joinCmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "log level")
}

func runJoin(ctx context.Context, logger *zerolog.Logger) error {
	endpoint, err := client.WebSocketURL(flagServer)
	if err != nil {
		return err
	}
	conn, err := client.Dial(ctx, endpoint, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	radio := client.NewVirtualPlayer()
	ctrl := client.NewController(client.Options{
		Signaler: conn,
		Peers:    client.NewPionFactory(nil, logger),
		Media:    client.SilenceSource{Log: logger},
		View:     client.LogView{Log: logger},
		Emitters: []*client.Emitter{{ID: "radio", Position: proximity.Position{X: 500, Y: 500}, Player: radio}},
		Logger:   logger,
		OnRoomFull: func(string) {
			cancel()
		},
	})

	hello, err := proto.NewInbound(proto.InboundTypeHello, proto.HelloData{Protocol: proto.ProtocolVersion})
	if err != nil {
		return err
	}
	if err := conn.Send(hello); err != nil {
		return err
	}
	if err := ctrl.Join(flagRoom); err != nil {
		return err
	}

	runErr := make(chan error, 1)
	go func() { runErr <- ctrl.Run(ctx, conn.Incoming()) }()

	var ticks <-chan time.Time
	if flagWander > 0 {
		ticker := time.NewTicker(flagWander)
		defer ticker.Stop()
		ticks = ticker.C
	}

	// The server only accepts a rename once the join is confirmed.
	pending := time.NewTicker(100 * time.Millisecond)
	defer pending.Stop()
	waitJoin := pending.C
	if flagName == "" {
		waitJoin = nil
	}

	for {
		select {
		case err := <-runErr:
			return joinResult(ctrl, err)
		case <-waitJoin:
			if !ctrl.Joined() {
				continue
			}
			if err := ctrl.Rename(flagName); err != nil {
				return err
			}
			waitJoin = nil
		case <-ticks:
			dir := client.Direction(rand.IntN(4))
			if err := ctrl.Move(dir); err != nil {
				if !errors.Is(err, client.ErrNotInRoom) {
					logger.Warn().Err(err).Str("direction", dir.String()).Msg("move failed")
				}
				continue
			}
			pos, _ := ctrl.Self()
			logger.Debug().Float64("x", pos.X).Float64("y", pos.Y).Float64("radio", radio.Volume()).Msg("moved")
		}
	}
}

func joinResult(ctrl *client.Controller, err error) error {
	switch {
	case ctrl.Full():
		return fmt.Errorf("%w: %s", client.ErrRoomIsFull, flagRoom)
	case errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, client.ErrClosed):
		return errors.New("server closed the connection")
	default:
		return err
	}
}
