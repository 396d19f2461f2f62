package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dev.hon.one/radar/common"
	"dev.hon.one/radar/db"
	"dev.hon.one/radar/http"
	"dev.hon.one/radar/scanning"
	"dev.hon.one/radar/tui"
	"dev.hon.one/radar/util"
)

type rootOptions struct {
	scan         common.ScanOptions
	configPath   string
	envFile      string
	concurrency  int
	debug        bool
	useTUI       bool
	metricsFile  string
	knownHosts   string
	httpEndpoint string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{envFile: ".env"}

	cmd := &cobra.Command{
		Use:           "radar",
		Short:         "Scan an IP range via SSH and find which host owns a given MAC address",
		Version:       common.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.scan.TargetMAC, "target-mac", "m", "", "Target MAC address to search for (e.g. aa:bb:cc:dd:ee:ff)")
	flags.StringVarP(&opts.scan.Range, "range", "r", "", "IP range in CIDR notation (e.g. 192.168.1.0/24)")
	flags.StringVarP(&opts.scan.KeyPath, "key", "k", "", "Path to private key file for SSH authentication")
	flags.StringVarP(&opts.scan.Password, "password", "p", "", "Password for SSH authentication, also the key passphrase (default $"+common.PasswordEnv+")")
	flags.StringVarP(&opts.scan.Username, "user", "u", "", "SSH username (default root)")
	flags.IntVar(&opts.scan.Port, "port", 0, "SSH port (default 22)")
	flags.Float64Var(&opts.scan.TimeoutSeconds, "timeout-sec", 0, "SSH timeout per host in seconds (default 5)")
	flags.Float64Var(&opts.scan.ScanTimeoutSeconds, "scan-timeout", 0, "Deadline for the whole scan in seconds, 0 for none")
	flags.StringVar(&opts.scan.Profile, "profile", "", "Device profile (hc, ai2, ai3 or one from the config)")
	flags.IntVarP(&opts.concurrency, "concurrency", "c", 0, "Maximum number of hosts probed at once (default 50)")
	flags.StringVar(&opts.configPath, "config", "", "Config file path")
	flags.StringVar(&opts.envFile, "env-file", opts.envFile, "Environment file with secrets, ignored if missing")
	flags.BoolVar(&opts.debug, "debug", false, "Show debug messages")
	flags.BoolVar(&opts.useTUI, "tui", false, "Show scan status in the terminal")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")
	flags.StringVar(&opts.knownHosts, "known-hosts", "", "Verify host keys against this known_hosts file")
	flags.StringVar(&opts.httpEndpoint, "http-endpoint", "", "Serve metrics on this address while scanning (e.g. :9100)")
	cmd.MarkFlagRequired("target-mac")

	return cmd
}

// Load secrets from the env file. Existing variables are kept.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file %v: %w", path, err)
	}
	return nil
}

// Command line flags win over the config file.
func applyFlagOverrides(config *common.Config, opts *rootOptions) {
	if opts.concurrency > 0 {
		config.Concurrency = opts.concurrency
	}
	if config.Concurrency <= 0 {
		config.Concurrency = common.DefaultConcurrency
	}
	if opts.metricsFile != "" {
		config.MetricsFile = opts.metricsFile
	}
	if opts.knownHosts != "" {
		config.KnownHostsPath = opts.knownHosts
	}
	if opts.httpEndpoint != "" {
		config.HTTPEndpoint = opts.httpEndpoint
	}
}

func runScan(ctx context.Context, opts *rootOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := util.SetupLogging(util.LogOptions{Debug: opts.debug}); err != nil {
		return err
	}
	if err := loadEnvFile(opts.envFile); err != nil {
		return err
	}
	config, err := common.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(&config, opts)
	if err := util.SetupLogging(util.LogOptions{Level: config.LogLevel, Debug: opts.debug, File: config.LogFile, Discard: opts.useTUI}); err != nil {
		return fmt.Errorf("invalid log settings: %w", err)
	}
	log.Infof("Starting %v version %v by %v", common.AppName, common.AppVersion, common.AppAuthor)

	resolved, err := common.ResolveScan(opts.scan, config, os.LookupEnv)
	if err != nil {
		return err
	}
	prober, err := scanning.NewSSHProber(resolved.Probe)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"username":   resolved.Probe.Username,
		"port":       resolved.Probe.Port,
		"credential": resolved.Probe.Credential.String(),
		"timeout":    resolved.Probe.Timeout,
	}).Debug("Resolved probe config")

	// Run internal services in background, stop them when done
	shutdown := util.NewShutdownChannelDistributor()
	var waitGroup sync.WaitGroup
	defer func() {
		shutdown.Shutdown()
		waitGroup.Wait()
	}()
	metrics := scanning.NewMetrics()
	http.StartServer(config.HTTPEndpoint, metrics.Registry, &waitGroup, shutdown)
	db.StartClient(config, &waitGroup, shutdown)

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if resolved.ScanTimeout > 0 {
		var cancelTimeout context.CancelFunc
		scanCtx, cancelTimeout = context.WithTimeout(scanCtx, resolved.ScanTimeout)
		defer cancelTimeout()
	}
	watchShutdown(scanCtx, cancel, shutdown)

	var program *tea.Program
	scanner := scanning.NewScanner(prober,
		scanning.WithConcurrency(config.Concurrency),
		scanning.WithMetrics(metrics),
		scanning.WithProbeHook(func(entry common.ProbeEntry) {
			db.StoreProbeEntry(entry)
			if program != nil {
				program.Send(tui.ProgressMsg{})
			}
		}),
	)

	var result *common.ScanResult
	if opts.useTUI {
		program = tea.NewProgram(tui.NewStatusModel(resolved.TargetMAC, resolved.Range, cancel))
		result, err = runWithStatusView(scanCtx, cancel, program, scanner, resolved)
	} else {
		fmt.Fprintf(os.Stderr, "Scanning %v for %v ...\n", resolved.Range, resolved.TargetMAC)
		result, err = scanner.Scan(scanCtx, resolved.TargetMAC, resolved.Range)
	}

	if result != nil {
		db.StoreScanEntry(common.NewScanEntry(result))
	}
	if config.MetricsFile != "" {
		if writeErr := metrics.WriteTextfile(config.MetricsFile); writeErr != nil {
			log.WithError(writeErr).Warn("Failed to write metrics file")
		}
	}
	if err != nil {
		return err
	}
	if !result.Found {
		return result.Err()
	}
	fmt.Fprintln(stdout, result.Address)
	return nil
}

// Cancel the scan on SIGINT/SIGTERM or any other shutdown signal.
func watchShutdown(scanCtx context.Context, cancel context.CancelFunc, shutdown *util.ShutdownChannelDistributor) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(signals)
		select {
		case sig := <-signals:
			log.WithField("signal", sig.String()).Info("Interrupted, stopping scan")
			shutdown.Shutdown()
		case <-scanCtx.Done():
		}
	}()

	shutdownChannel := make(chan bool, 1)
	if !shutdown.AddListener(shutdownChannel) {
		cancel()
		return
	}
	go func() {
		select {
		case <-shutdownChannel:
			cancel()
		case <-scanCtx.Done():
		}
	}()
}

type scanReturn struct {
	result *common.ScanResult
	err    error
}

// Run the scan in the background while the status view owns the terminal.
func runWithStatusView(ctx context.Context, cancel context.CancelFunc, program *tea.Program, scanner *scanning.Scanner, resolved common.ResolvedScan) (*common.ScanResult, error) {
	total := 0
	if hosts, err := scanning.ParseRange(resolved.Range); err == nil {
		total = hosts.Len()
	}

	done := make(chan scanReturn, 1)
	go func() {
		program.Send(tui.StartedMsg{Total: total})
		result, err := scanner.Scan(ctx, resolved.TargetMAC, resolved.Range)
		msg := tui.ResultMsg{Err: err}
		if err == nil {
			if result.Found {
				msg.Address = result.Address
			} else {
				msg.Err = result.Err()
			}
		}
		program.Send(msg)
		done <- scanReturn{result: result, err: err}
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("status view failed: %w", err)
	}
	ret := <-done
	return ret.result, ret.err
}
