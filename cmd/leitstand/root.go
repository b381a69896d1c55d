package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leitstand/leitstand/pkg/api"
	"github.com/leitstand/leitstand/pkg/client"
	"github.com/leitstand/leitstand/pkg/config"
	"github.com/leitstand/leitstand/pkg/logger"
	"github.com/leitstand/leitstand/pkg/metrics"
	"github.com/leitstand/leitstand/pkg/protocol"
	"github.com/leitstand/leitstand/pkg/tui"
)

var (
	cfgPath     string
	endpoint    string
	sessionCode string
)

var rootCmd = &cobra.Command{
	Use:          "leitstand",
	Short:        "Funkübungs-Statusboard: unit keypad and dispatch consoles",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "server base URL, overrides the config file")
	rootCmd.PersistentFlags().StringVar(&sessionCode, "session", "", "session code, overrides the config file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgPath != "" {
		cfg, err = config.Load(cfgPath)
	} else {
		cfg, err = config.LoadDefaults()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if endpoint != "" {
		cfg.Server.Endpoint = endpoint
	}
	if sessionCode != "" {
		cfg.Server.SessionCode = sessionCode
	}
	return cfg, nil
}

// resolveSessionCode picks the session code: the explicit flag or config
// value, then the code last used against this endpoint, then the last code
// overall.
func resolveSessionCode(explicit, endpoint string, st *client.State) string {
	if explicit != "" {
		return explicit
	}
	if endpoint != "" {
		if code, err := st.GetLastSessionFor(endpoint); err == nil && code != "" {
			return code
		}
	}
	return st.GetLastSessionCode()
}

// resolveUnitName picks the call sign: flag, then config, then the name
// used on the previous run.
func resolveUnitName(flagName string, cfg *config.Config, st *client.State) string {
	if flagName != "" {
		return flagName
	}
	if cfg.Unit.Name != "" {
		return cfg.Unit.Name
	}
	return st.GetLastIdentity()
}

// wsBase turns the HTTP endpoint into its websocket counterpart.
func wsBase(httpBase string) (string, error) {
	u, err := url.Parse(httpBase)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	return u.String(), nil
}

// runConsole wires one console variant: connection, session, state store,
// metrics listener and the terminal program.
func runConsole(role client.Role, unitName string, model func(*client.Session, *api.Commands, string, *client.State, logger.Logger) tea.Model) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := client.OpenState(cfg.State.Path)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer st.Close()

	// Fill the gaps from the previous run before validating.
	cfg.Server.SessionCode = resolveSessionCode(cfg.Server.SessionCode, cfg.Server.Endpoint, st)
	if err := cfg.Server.Validate(); err != nil {
		return err
	}
	if role == client.RoleUnit {
		unitName = resolveUnitName(unitName, cfg, st)
		if unitName == "" {
			return fmt.Errorf("a unit name is required (--name, unit.name in the config, or a previous run)")
		}
	}

	// The terminal owns stdout; logs go to a file next to the state db.
	logFile, err := os.OpenFile(filepath.Join(st.GetStateDir(), "leitstand.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log := logger.New("leitstand", logFile)

	set := metrics.NewNop()
	if cfg.Metrics.Enabled {
		set, err = metrics.NewSet(nil)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Address); err != nil {
				log.Errorf("metrics listener: %v", err)
			}
		}()
	}

	identity := client.Identity(role, unitName)
	base, err := wsBase(cfg.Server.Endpoint)
	if err != nil {
		return err
	}

	conn := client.NewConn(client.ConnConfig{
		URL:               protocol.SessionURL(base, cfg.Server.SessionCode, identity),
		HandshakeTimeout:  cfg.Connection.HandshakeTimeout(),
		HeartbeatInterval: cfg.Connection.Heartbeat(),
		BackoffBase:       cfg.Connection.BackoffBase(),
		BackoffCap:        cfg.Connection.BackoffCap(),
		Logger:            log,
		Metrics:           set,
	})

	commands := api.NewCommands(cfg.Server.Endpoint, cfg.Server.SessionCode, set)

	// The session's handlers close over the program pointer; the session
	// is only started once the program exists.
	var program *tea.Program
	session := client.NewSession(conn, client.SessionOpts{
		Role:     role,
		Identity: identity,
		Logger:   log,
		Metrics:  set,
	}, client.Handlers{
		OnSnapshot: func(v client.ViewState) { program.Send(tui.SnapshotMsg{View: v}) },
		OnText:     func(t protocol.FreeText) { program.Send(tui.TextMsg{Text: t}) },
		OnState:    func(u client.ConnStateUpdate) { program.Send(tui.ConnStateMsg{Update: u}) },
	})
	program = tea.NewProgram(model(session, commands, identity, st, log), tea.WithAltScreen(), tea.WithContext(ctx))

	if err := session.Start(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer session.Stop()

	if role == client.RoleUnit {
		if err := st.SetLastIdentity(unitName); err != nil {
			log.Warnf("persist identity: %v", err)
		}
	}
	if err := st.SaveSuccessfulConnection(cfg.Server.Endpoint, cfg.Server.SessionCode); err != nil {
		log.Warnf("persist connection history: %v", err)
	}
	if err := st.SetLastSessionCode(cfg.Server.SessionCode); err != nil {
		log.Warnf("persist session code: %v", err)
	}
	if st.GetFirstRun() {
		if err := st.SetFirstRunComplete(); err != nil {
			log.Warnf("persist first run: %v", err)
		}
	}

	defer func() {
		if role == client.RoleUnit {
			var kurz string
			if _, _, k := session.Status(); k != nil {
				kurz = *k
			}
			if err := st.SetLastKurzstatus(kurz); err != nil {
				log.Warnf("persist kurzstatus: %v", err)
			}
		}
		if err := st.UpdateLastSeenTimestamp(); err != nil {
			log.Warnf("persist last seen: %v", err)
		}
	}()
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	return nil
}
