package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/timepulse/internal/api"
	"github.com/christopherklint97/timepulse/internal/config"
	"github.com/christopherklint97/timepulse/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	RunE:  runServe,
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run the end-of-day reminder in the foreground",
	RunE:  runRemind,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running reminder",
	RunE:  runStop,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open the config file in your editor",
	RunE:  runConfig,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <section.key> <value>",
	Short: "Set one value in the config file",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	remindCmd.Flags().Bool("once", false, "check once and exit")

	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(serveCmd, remindCmd, stopCmd, configCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	gin.SetMode(gin.ReleaseMode)
	srv := api.New(a.svc, api.Options{
		CORSOrigins:   a.cfg.Server.CORSOrigins,
		DefaultUserID: a.cfg.User.ID,
		Logger:        a.logger,
	})
	return srv.Run(cmd.Context(), addr)
}

func runRemind(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := scheduler.Options{
		UserID:          a.userID,
		WorkStart:       a.cfg.Schedule.WorkStart,
		WorkEnd:         a.cfg.Schedule.WorkEnd,
		WorkDays:        a.cfg.Schedule.WorkDays,
		IntervalMinutes: a.cfg.Schedule.IntervalMinutes,
		DailyTarget:     a.cfg.Schedule.DailyTargetHours,
		Logger:          a.logger,
	}
	if !a.cfg.Notifications.Enabled {
		opts.Notifier = scheduler.NotifierFunc(func(title, message string) error {
			fmt.Fprintln(stdout, message)
			return nil
		})
	}

	if once, _ := cmd.Flags().GetBool("once"); once {
		sent, err := scheduler.New(a.svc, opts).Check(cmd.Context())
		if err != nil {
			return err
		}
		if !sent {
			fmt.Fprintln(stdout, "No reminder due.")
		}
		return nil
	}

	pidPath, err := config.PIDPath()
	if err != nil {
		return err
	}
	opts.PIDPath = pidPath

	fmt.Fprintf(stdout, "Reminder running (checks every %d min after %s). Stop with `timepulse stop`.\n",
		a.cfg.Schedule.IntervalMinutes, a.cfg.Schedule.WorkEnd)
	return scheduler.New(a.svc, opts).Run(cmd.Context())
}

func runStop(cmd *cobra.Command, args []string) error {
	pidPath, err := config.PIDPath()
	if err != nil {
		return err
	}
	pid, err := scheduler.ReadPID(pidPath)
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("sending stop signal: %w", err)
	}

	fmt.Fprintf(stdout, "Sent stop signal to timepulse (PID %d)\n", pid)
	return nil
}

func configPath() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	return config.ConfigPath()
}

func runConfig(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		data, err := config.DefaultConfig().Marshal()
		if err != nil {
			return fmt.Errorf("rendering default config: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	fmt.Fprintf(stdout, "Opening %s with %s...\n", path, editor)

	c := exec.CommandContext(cmd.Context(), editor, path)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		fmt.Fprintf(stdout, "Could not open editor. Config file is at: %s\n", path)
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, _ := configPath()
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}
	fmt.Fprintln(stdout, dim("# "+path))
	fmt.Fprint(stdout, string(data))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	section, key, found := strings.Cut(args[0], ".")
	if !found || section == "" || key == "" {
		return fmt.Errorf("key must look like section.key, e.g. calendar.source")
	}
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := config.Set(path, section, key, typedValue(args[1])); err != nil {
		return err
	}
	if _, err := config.LoadFrom(path); err != nil {
		return fmt.Errorf("config saved but no longer valid: %w", err)
	}
	fmt.Fprintf(stdout, "%s %s = %s\n", ok("Set"), args[0], args[1])
	return nil
}

// typedValue keeps numbers and booleans typed so the TOML stays valid.
func typedValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
