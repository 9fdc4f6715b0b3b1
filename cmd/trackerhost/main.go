package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-tracker/config"
	"go-tracker/hostlink"
	"go-tracker/midi"
)

var (
	configPath string
	verbose    bool
	flags      config.Config
)

func main() {
	root := &cobra.Command{
		Use:          "trackerhost",
		Short:        "Host companion for go-tracker devices",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/go-tracker/config.json)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	ports := &cobra.Command{
		Use:   "ports",
		Short: "List MIDI and serial ports",
		RunE:  listPorts,
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Connect to a device and serve it",
		RunE:  serve,
	}
	f := run.Flags()
	f.StringVar(&flags.Link.SerialPort, "serial", "", "serial port of the device")
	f.IntVar(&flags.Link.Baud, "baud", 0, "serial baud rate")
	f.StringVar(&flags.Link.TCPAddr, "tcp", "", "device address (host:port)")
	f.BoolVar(&flags.Link.Listen, "listen", false, "accept the device on --tcp instead of dialing")
	f.StringVar(&flags.Host.MidiInput, "midi-in", "", "MIDI input port relayed to the device")
	f.StringVar(&flags.Host.OSCListen, "osc-listen", "", "address for inbound OSC bus messages")
	f.StringVar(&flags.Host.OSCHost, "osc-host", "", "OSC host receiving bus lines")
	f.IntVar(&flags.Host.OSCPort, "osc-port", 0, "OSC port receiving bus lines")

	root.AddCommand(ports, run)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func listPorts(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "=== MIDI Ports ===")
	p, ok := midi.PortNames(3 * time.Second)
	if !ok {
		fmt.Fprintln(out, "timed out listing MIDI ports")
	}
	for i, name := range p.In {
		fmt.Fprintf(out, "  in  %d: %s\n", i, name)
	}
	for i, name := range p.Out {
		fmt.Fprintf(out, "  out %d: %s\n", i, name)
	}

	fmt.Fprintln(out, "\n=== Serial Ports ===")
	serials, err := hostlink.SerialPorts()
	if err != nil {
		return err
	}
	for _, s := range serials {
		fmt.Fprintf(out, "  %s\n", s)
	}
	return nil
}

// loadConfig merges explicitly set flags over the config file. The device
// and the host share one file, so the TCP role is inverted here unless
// --listen is given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	cfg.Link.Listen = !cfg.Link.Listen

	f := cmd.Flags()
	set := map[string]func(){
		"serial":     func() { cfg.Link.SerialPort = flags.Link.SerialPort },
		"baud":       func() { cfg.Link.Baud = flags.Link.Baud },
		"tcp":        func() { cfg.Link.TCPAddr = flags.Link.TCPAddr },
		"listen":     func() { cfg.Link.Listen = flags.Link.Listen },
		"midi-in":    func() { cfg.Host.MidiInput = flags.Host.MidiInput },
		"osc-listen": func() { cfg.Host.OSCListen = flags.Host.OSCListen },
		"osc-host":   func() { cfg.Host.OSCHost = flags.Host.OSCHost },
		"osc-port":   func() { cfg.Host.OSCPort = flags.Host.OSCPort },
	}
	for name, apply := range set {
		if f.Changed(name) {
			apply()
		}
	}
	return cfg, cfg.Validate()
}

func openLink(ctx context.Context, c config.LinkConfig, log *logrus.Logger) (hostlink.Transport, error) {
	switch {
	case c.SerialPort != "":
		log.Infof("opening %s at %d baud", c.SerialPort, c.Baud)
		return hostlink.OpenSerial(c.SerialPort, c.Baud, hostlink.DefaultReadWait)
	case c.TCPAddr != "" && c.Listen:
		ln, err := net.Listen("tcp", c.TCPAddr)
		if err != nil {
			return nil, err
		}
		defer ln.Close()
		log.Infof("waiting for device on %s", ln.Addr())
		return hostlink.AcceptTCP(ctx, ln, hostlink.DefaultReadWait)
	case c.TCPAddr != "":
		log.Infof("dialing device at %s", c.TCPAddr)
		return hostlink.DialTCP(c.TCPAddr, hostlink.DefaultReadWait)
	}
	return nil, errors.New("no device link: set --serial or --tcp")
}

func serve(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	t, err := openLink(ctx, cfg.Link, log)
	if err != nil {
		return err
	}
	link := hostlink.NewHostLink(t)
	defer link.Close()

	deviceMgr := midi.NewDeviceManager(nil)
	go deviceMgr.Run(ctx)

	var bus packetSender
	if cfg.Host.OSCHost != "" && cfg.Host.OSCPort > 0 {
		bus = osc.NewClient(cfg.Host.OSCHost, cfg.Host.OSCPort)
	}
	bridge := NewBridge(link, log, deviceMgr.Outputs, bus)

	if addr := cfg.Host.OSCListen; addr != "" {
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return fmt.Errorf("osc listen: %w", err)
		}
		context.AfterFunc(ctx, func() { conn.Close() })
		server := &osc.Server{Addr: addr, Dispatcher: bridge}
		go func() {
			if err := server.Serve(conn); err != nil && ctx.Err() == nil {
				log.Warnf("osc server: %v", err)
			}
		}()
		log.Infof("bus listening on %s", conn.LocalAddr())
	}

	if name := cfg.Host.MidiInput; name != "" {
		in, err := midi.OpenListener(name)
		if err != nil {
			return err
		}
		defer in.Close()
		go func() {
			for e := range in.Events() {
				if err := bridge.Relay(e); err != nil {
					log.Warnf("relay %v: %v", e, err)
				}
			}
		}()
		log.Infof("relaying %s", name)
	}

	// Re-send the device list on hot-plug
	go func() {
		for ev := range deviceMgr.Events() {
			log.Debugf("%s %v", ev.Name, ev.Dir)
			if ev.Dir != midi.PortOut {
				continue
			}
			if err := bridge.SendDevs(); err != nil {
				log.Warnf("devs: %v", err)
			}
		}
	}()

	for ctx.Err() == nil {
		if err := bridge.Poll(); err != nil {
			if errors.Is(err, io.EOF) {
				log.Info("device closed the link")
				return nil
			}
			log.Debugf("poll: %v", err)
			time.Sleep(10 * time.Millisecond)
		}
	}
	return nil
}
