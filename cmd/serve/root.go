package serve

import (
	"fmt"
	cmdUtil "github.com/ValentinKolb/dTetris/cmd/util"
	"github.com/ValentinKolb/dTetris/lib/shutdown"
	"github.com/ValentinKolb/dTetris/rpc/common"
	"github.com/ValentinKolb/dTetris/rpc/server"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"strconv"
	"syscall"
)

var (
	log = logger.GetLogger("server")

	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the game server",
		Long:    `Start the game server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DTETRIS_<flag> (e.g. DTETRIS_PORT=9000)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "port"
	ServeCmd.PersistentFlags().String(key, strconv.Itoa(int(common.DefaultPort)), cmdUtil.WrapString("The TCP port to listen on (1-65535). Invalid values fall back to the default port with a warning"))

	key = "host"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0", cmdUtil.WrapString("The address to bind to"))

	key = "socket-path"
	ServeCmd.PersistentFlags().String(key, "/tmp/dtetris.sock", cmdUtil.WrapString("The socket path to listen on (only for the unix transport)"))

	key = "workers"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Number of worker threads running the reactor. 0 uses the concurrency the host allows this process"))

	key = "idle-timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Close sessions that sent no frame for this many seconds (0 disables the timeout)"))

	key = "max-frame-size"
	ServeCmd.PersistentFlags().Uint32(key, common.DefaultMaxFrameSize, cmdUtil.WrapString("The largest frame payload accepted from a client (in bytes). Larger frames close the session"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address to serve Prometheus metrics on (e.g. localhost:9100). Empty disables the endpoint"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	serveCmdConfig.LogLevel = viper.GetString("log-level")
	if err := common.InitLoggers(serveCmdConfig.LogLevel); err != nil {
		return err
	}

	// an invalid port is never fatal
	port, err := common.ResolvePort(viper.GetString("port"))
	if err != nil {
		log.Warningf("%v", err)
	}

	serveCmdConfig.Port = port
	serveCmdConfig.Host = viper.GetString("host")
	serveCmdConfig.SocketPath = viper.GetString("socket-path")
	serveCmdConfig.Transport = viper.GetString("transport")
	serveCmdConfig.Serializer = viper.GetString("serializer")
	serveCmdConfig.Workers = viper.GetInt("workers")
	serveCmdConfig.IdleTimeoutSecond = viper.GetInt64("idle-timeout")
	serveCmdConfig.MaxFrameSize = viper.GetUint32("max-frame-size")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")

	if serveCmdConfig.Workers < 0 {
		return fmt.Errorf("invalid worker count %d", serveCmdConfig.Workers)
	}
	if serveCmdConfig.IdleTimeoutSecond < 0 {
		return fmt.Errorf("invalid idle timeout %d", serveCmdConfig.IdleTimeoutSecond)
	}
	return nil
}

// run starts the game server and blocks until it stopped
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewServer(*serveCmdConfig, t, s)

	// SIGINT and SIGTERM request a graceful stop
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Infof("received %s, shutting down", sig)
			serv.Shutdown()
		case <-serv.Coordinator().Initiated():
		}
	}()

	outcome, err := serv.Serve()
	if err != nil {
		return err
	}

	// both outcomes are a normal end of the process
	if outcome == shutdown.ForcedShutdown {
		log.Warningf("stopped after a worker fault")
	}
	return nil
}
