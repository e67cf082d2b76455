// Package cli assembles the ssh-test-server binary's Cobra command tree:
// serve (run a standalone instance), scenario (run a named preset),
// watch (attach a live dashboard to a running instance's connection
// manager), and demo (drive a real ssh client against a freshly started
// instance).
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	sshtest "github.com/sshtest/server"
	"github.com/sshtest/server/internal/appconfig"
	"github.com/sshtest/server/internal/doctor"
	"github.com/sshtest/server/internal/scenario"
	"github.com/sshtest/server/internal/sshclient"
	"github.com/sshtest/server/internal/tui"
)

// NewRootCommand builds the full ssh-test-server command tree.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "ssh-test-server",
		Short: "Run a standalone, password-authenticated SSH server for manual testing",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML defaults file")

	root.AddCommand(
		newServeCmd(&configPath),
		newScenarioCmd(&configPath),
		newWatchCmd(&configPath),
		newDemoCmd(&configPath),
		newDoctorCmd(&configPath),
	)
	return root
}

func loadConfig(configPath *string) (appconfig.Config, error) {
	return appconfig.Load(*configPath)
}

func newServeCmd(configPath *string) *cobra.Command {
	var bindAddr, login, password, eventLogPath string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a server and block until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, &cfg, bindAddr, login, password, eventLogPath, port)
			return runServe(cmd.Context(), cfg)
		},
	}
	addServeFlags(cmd, &bindAddr, &login, &password, &eventLogPath, &port)
	return cmd
}

func newScenarioCmd(configPath *string) *cobra.Command {
	var bindAddr, eventLogPath string
	var port int

	cmd := &cobra.Command{
		Use:   "scenario <name-or-path>",
		Short: "Start a server seeded from a built-in or custom scenario preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, &cfg, bindAddr, "", "", eventLogPath, port)

			preset, ok := scenario.Lookup(args[0])
			if !ok {
				preset, err = scenario.Load(args[0])
				if err != nil {
					return fmt.Errorf("unknown scenario %q and could not load it as a file: %w", args[0], err)
				}
			}
			if preset.Notes != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "note:", preset.Notes)
			}
			return runServeWithUsers(cmd.Context(), cfg, preset.Users)
		},
	}
	cmd.Flags().StringVar(&bindAddr, "bind-addr", "", "interface to listen on")
	cmd.Flags().IntVar(&port, "port", 0, "TCP port (0 = OS-assigned)")
	cmd.Flags().StringVar(&eventLogPath, "event-log", "", "append a JSONL audit trail to this path")
	return cmd
}

func newWatchCmd(configPath *string) *cobra.Command {
	var bindAddr, login, password string
	var port int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Start a server and attach a live connection dashboard to it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, &cfg, bindAddr, login, password, "", port)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			srv, err := buildServer(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer srv.Close()

			printBanner(cmd, srv, cfg)
			model := tui.New(srv.Connections, srv.Addr(), cfg.RefreshSeconds)
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}
	addServeFlags(cmd, &bindAddr, &login, &password, nil, &port)
	return cmd
}

func newDemoCmd(configPath *string) *cobra.Command {
	var bindAddr, login, password string
	var port int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Start a server and immediately attach a real ssh client to it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, &cfg, bindAddr, login, password, "", port)

			if cfg.Password == "" {
				pw, err := sshclient.PromptPassword(cfg.Login)
				if err != nil {
					return err
				}
				cfg.Password = pw
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			srv, err := buildServer(ctx, cfg, nil)
			if err != nil {
				return err
			}
			defer srv.Close()

			printBanner(cmd, srv, cfg)
			return sshclient.Run(sshclient.Options{
				Host:     srv.Host(),
				Port:     srv.Port(),
				Login:    cfg.Login,
				Password: cfg.Password,
			})
		},
	}
	addServeFlags(cmd, &bindAddr, &login, &password, nil, &port)
	return cmd
}

func newDoctorCmd(configPath *string) *cobra.Command {
	var bindAddr string
	var port int

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run preflight checks (port range, bind address, host key generation)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if bindAddr != "" {
				cfg.BindAddr = bindAddr
			}
			if port != 0 {
				cfg.Port = port
			}
			checks := doctor.Run(cfg.BindAddr, cfg.Port)
			for _, c := range checks {
				status := "ok"
				if !c.OK {
					status = "FAIL"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s %s\n", status, c.Name, c.Detail)
			}
			if !doctor.AllOK(checks) {
				return fmt.Errorf("one or more preflight checks failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bindAddr, "bind-addr", "", "interface to check")
	cmd.Flags().IntVar(&port, "port", 0, "port to check (0 = OS-assigned)")
	return cmd
}

func addServeFlags(cmd *cobra.Command, bindAddr, login, password, eventLogPath *string, port *int) {
	cmd.Flags().StringVar(bindAddr, "bind-addr", "", "interface to listen on")
	cmd.Flags().IntVar(port, "port", 0, "TCP port (0 = OS-assigned)")
	cmd.Flags().StringVar(login, "login", "", "seed user login")
	cmd.Flags().StringVar(password, "password", "", "seed user password")
	if eventLogPath != nil {
		cmd.Flags().StringVar(eventLogPath, "event-log", "", "append a JSONL audit trail to this path")
	}
}

func applyFlagOverrides(cmd *cobra.Command, cfg *appconfig.Config, bindAddr, login, password, eventLogPath string, port int) {
	if cmd.Flags().Changed("bind-addr") {
		cfg.BindAddr = bindAddr
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if cmd.Flags().Changed("login") {
		cfg.Login = login
	}
	if cmd.Flags().Changed("password") {
		cfg.Password = password
	}
	if cmd.Flags().Changed("event-log") {
		cfg.EventLogPath = eventLogPath
	}
}

func buildServer(ctx context.Context, cfg appconfig.Config, users []scenario.UserSpec) (*sshtest.Server, error) {
	b := sshtest.NewBuilder().
		BindAddr(cfg.BindAddr).
		Port(cfg.Port).
		Logger(slog.Default())
	if cfg.EventLogPath != "" {
		b.EventLogPath(cfg.EventLogPath)
	}
	if len(users) == 0 {
		b.AddUser(sshtest.NewUser(cfg.Login, cfg.Password))
	} else {
		for _, u := range users {
			if u.Admin {
				b.AddUser(sshtest.NewAdminUser(u.Login, u.Password))
			} else {
				b.AddUser(sshtest.NewUser(u.Login, u.Password))
			}
		}
	}
	return b.Run(ctx)
}

func runServe(ctx context.Context, cfg appconfig.Config) error {
	return runServeWithUsers(ctx, cfg, nil)
}

func runServeWithUsers(ctx context.Context, cfg appconfig.Config, users []scenario.UserSpec) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv, err := buildServer(runCtx, cfg, users)
	if err != nil {
		return err
	}
	defer srv.Close()

	fmt.Printf("Addr: %s\n", srv.Addr())
	fmt.Printf("Public Key: %s\n", srv.ServerPublicKey())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	return nil
}

func printBanner(cmd *cobra.Command, srv *sshtest.Server, cfg appconfig.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Addr: %s\n", srv.Addr())
	fmt.Fprintf(out, "Login: %s\n", cfg.Login)
	fmt.Fprintf(out, "Password: %s\n", cfg.Password)
	fmt.Fprintf(out, "Public Key: %s\n", srv.ServerPublicKey())
	fmt.Fprintf(out, "ssh -o StrictHostKeyChecking=no -l %s -p %d %s\n", cfg.Login, srv.Port(), srv.Host())
}
