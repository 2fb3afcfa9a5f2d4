package play

import (
	"context"
	"errors"
	"fmt"
	cmdUtil "github.com/ValentinKolb/dTetris/cmd/util"
	"github.com/ValentinKolb/dTetris/lib/tetris"
	"github.com/ValentinKolb/dTetris/rpc/client"
	"github.com/ValentinKolb/dTetris/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
	"time"
)

var (
	log = logger.GetLogger("client")

	PlayCmd = &cobra.Command{
		Use:   "play",
		Short: "Join a game and play a scripted sequence of actions",
		Long: `Connect to a game server, join a game and send a scripted sequence of actions.
Every frame received from the server is logged. The own board is mirrored locally
from the seed of the match, so the local view always matches the server's.

Example:
  dtetris play --mode multiplayer --actions left,left,rotate,drop --repeat 5`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := cmdUtil.BindCommandFlags(cmd); err != nil {
				return err
			}
			return common.InitLoggers(viper.GetString("log-level"))
		},
		RunE: run,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)
	cmdUtil.SetupClientFlags(PlayCmd)

	key := "mode"
	PlayCmd.Flags().String(key, "single", cmdUtil.WrapString("The game mode to join (single, multiplayer)"))

	key = "actions"
	PlayCmd.Flags().String(key, "left,left,rotate-cw,hard-drop,right,right,hard-drop", cmdUtil.WrapString("Comma-separated list of actions (left, right, rotate-cw, rotate-ccw, soft-drop, hard-drop)"))

	key = "repeat"
	PlayCmd.Flags().Int(key, 1, cmdUtil.WrapString("How often the action list is played"))

	key = "delay"
	PlayCmd.Flags().Duration(key, 100*time.Millisecond, cmdUtil.WrapString("Pause between two actions"))

	key = "linger"
	PlayCmd.Flags().Duration(key, 2*time.Second, cmdUtil.WrapString("How long to keep logging frames after the last action"))

	key = "log-level"
	PlayCmd.Flags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

func run(_ *cobra.Command, _ []string) error {
	actions, err := parseActions(viper.GetString("actions"))
	if err != nil {
		return err
	}

	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}
	t, err := cmdUtil.GetClientTransport()
	if err != nil {
		return err
	}

	config := cmdUtil.GetClientConfig()
	log.Debugf(config.String())

	c, err := client.NewGameClient(config, t, s)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Hello(viper.GetString("mode")); err != nil {
		return err
	}

	board, err := awaitMatch(c)
	if err != nil {
		return err
	}

	// log everything the server sends while playing
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ended := make(chan error, 1)
	go func() { ended <- logFrames(ctx, c) }()

	delay := viper.GetDuration("delay")
	for i := 0; i < viper.GetInt("repeat"); i++ {
		for _, a := range actions {
			select {
			case err := <-ended:
				return err
			default:
			}

			if _, err := c.Input(a); err != nil {
				return err
			}
			if _, err := board.Apply(a); err != nil {
				log.Infof("own game over, score %d", board.Score())
				fmt.Println(board)
				return nil
			}
			time.Sleep(delay)
		}
	}

	fmt.Println(board)

	select {
	case err := <-ended:
		return err
	case <-time.After(viper.GetDuration("linger")):
		return nil
	}
}

// awaitMatch waits until the server placed the client into a game and returns
// a local mirror of the own board
func awaitMatch(c *client.GameClient) (*tetris.Board, error) {
	for {
		f, err := c.Recv(context.Background())
		if err != nil {
			return nil, err
		}
		switch f.Msg.MsgType {
		case common.MsgTWaiting:
			log.Infof("waiting for an opponent")
		case common.MsgTMatch:
			log.Infof("match %s (%s), playing board %d", f.Msg.MatchID, f.Msg.Mode, f.Msg.Index)
			return tetris.NewBoard(f.Msg.Seed), nil
		case common.MsgTError:
			return nil, fmt.Errorf("server rejected hello: %s", f.Msg.Err)
		case common.MsgTTerminal:
			return nil, fmt.Errorf("game ended: %s", f.Msg.Reason)
		default:
			log.Warningf("unexpected %s before the match", f.Msg.MsgType)
		}
	}
}

// logFrames logs received frames until the game ended
func logFrames(ctx context.Context, c *client.GameClient) error {
	for {
		f, err := c.Recv(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			return err
		}

		switch f.Msg.MsgType {
		case common.MsgTSnapshot, common.MsgTSnapshotPartial:
			log.Infof("opponent board %d revision %d: %s", f.Msg.Index, f.Seq, f.Msg.Snapshot)
		case common.MsgTError:
			log.Warningf("input %d rejected: %s", f.Seq, f.Msg.Err)
		case common.MsgTTerminal:
			log.Infof("game ended: %s", f.Msg.Reason)
			return nil
		default:
			log.Debugf("frame %d: %s", f.Seq, f.Msg.MsgType)
		}
	}
}

func parseActions(list string) ([]tetris.Action, error) {
	var actions []tetris.Action
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		a, err := tetris.ParseAction(name)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	if len(actions) == 0 {
		return nil, errors.New("no actions given")
	}
	return actions, nil
}
