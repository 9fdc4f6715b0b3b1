package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-tracker/clock"
	"go-tracker/config"
	"go-tracker/debug"
	"go-tracker/hostlink"
	"go-tracker/midi"
	"go-tracker/sequencer"
	"go-tracker/theme"
	"go-tracker/tracker"
	"go-tracker/tui"
)

var (
	configPath  string
	palettePath string
	overrides   config.Config
)

func main() {
	root := &cobra.Command{
		Use:          "go-tracker",
		Short:        "Step tracker with a terminal screen",
		SilenceUsage: true,
		RunE:         run,
	}
	f := root.Flags()
	f.StringVar(&configPath, "config", "", "config file (default ~/.config/go-tracker/config.json)")
	f.StringVar(&palettePath, "palette", "", "GIMP .gpl palette for the screen")
	f.StringVar(&overrides.Link.SerialPort, "serial", "", "serial port of the host link")
	f.StringVar(&overrides.Link.TCPAddr, "tcp", "", "host link over TCP (host:port)")
	f.BoolVar(&overrides.Link.Listen, "listen", false, "accept the host on --tcp instead of dialing")
	f.StringVar(&overrides.SynthOutput.PortName, "out", "", "MIDI output port for the synth")
	f.StringVar(&overrides.SynthOutput.CapturePath, "capture", "", "write played notes to this .mid file on exit")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

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

	f := cmd.Flags()
	if f.Changed("serial") {
		cfg.Link.SerialPort = overrides.Link.SerialPort
	}
	if f.Changed("tcp") {
		cfg.Link.TCPAddr = overrides.Link.TCPAddr
	}
	if f.Changed("listen") {
		cfg.Link.Listen = overrides.Link.Listen
	}
	if f.Changed("out") {
		cfg.SynthOutput.PortName = overrides.SynthOutput.PortName
	}
	if f.Changed("capture") {
		cfg.SynthOutput.CapturePath = overrides.SynthOutput.CapturePath
	}
	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := debug.Enable(cfg.Log.File, cfg.Log.Level); err != nil {
		return err
	}
	defer debug.Disable()

	th := theme.New(nil)
	if palettePath != "" {
		p, err := theme.LoadGPL(palettePath)
		if err != nil {
			return err
		}
		th = theme.New(p)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var link *hostlink.Link
	t, err := openTransport(ctx, cfg.Link)
	if err != nil {
		return err
	}
	if t != nil {
		link = hostlink.NewLink(t)
		defer link.Close()
		debug.Logger().AddHook(hostlink.NewLogHook(link, logrus.InfoLevel))
	}

	sink, closeSink, err := openSink(cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	tracks := make([]*tracker.Track, 0, len(cfg.Sequencer.Tracks))
	for i, k := range cfg.Sequencer.Tracks {
		tr, err := tracker.NewTrack(tracker.TrackID(i), tracker.Kind(k))
		if err != nil {
			return err
		}
		tracks = append(tracks, tr)
	}

	clk, err := clock.New(cfg.Sequencer.Tempo, cfg.Sequencer.BPQ)
	if err != nil {
		return err
	}
	keys := tracker.NewKeyState()
	manager, err := sequencer.NewManager(sequencer.Options{
		Tracks:    tracks,
		Clock:     clk,
		Sink:      sink,
		Link:      link,
		Keys:      keys,
		Channel:   uint8(cfg.SynthOutput.Channel),
		ListenFor: cfg.Sequencer.ListenFor,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager(nil)
	go deviceMgr.Run(ctx)

	loopDone := make(chan error, 1)
	go func() { loopDone <- manager.Run(ctx) }()

	p := tea.NewProgram(tui.NewModel(manager, keys, deviceMgr, th), tea.WithAltScreen(), tea.WithContext(ctx))
	_, uiErr := p.Run()
	if errors.Is(uiErr, tea.ErrProgramKilled) {
		uiErr = nil
	}

	cancel()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		debug.Warn("loop", "%v", err)
	}
	return uiErr
}

// openTransport returns nil when no host link is configured
func openTransport(ctx context.Context, c config.LinkConfig) (hostlink.Transport, error) {
	switch {
	case c.SerialPort != "":
		debug.Info("link", "serial %s at %d baud", c.SerialPort, c.Baud)
		return hostlink.OpenSerial(c.SerialPort, c.Baud, hostlink.DefaultReadWait)
	case c.TCPAddr != "" && c.Listen:
		ln, err := net.Listen("tcp", c.TCPAddr)
		if err != nil {
			return nil, err
		}
		defer ln.Close()
		fmt.Fprintf(os.Stderr, "waiting for host on %s\n", ln.Addr())
		return hostlink.AcceptTCP(ctx, ln, hostlink.DefaultReadWait)
	case c.TCPAddr != "":
		debug.Info("link", "dialing %s", c.TCPAddr)
		return hostlink.DialTCP(c.TCPAddr, hostlink.DefaultReadWait)
	}
	return nil, nil
}

func openSink(cfg *config.Config) (midi.Sink, func(), error) {
	var (
		sink    midi.Sink = midi.NullSink{}
		closers []func()
	)
	if name := cfg.SynthOutput.PortName; name != "" {
		ps, err := midi.OpenPortSink(name)
		if err != nil {
			return nil, nil, err
		}
		sink = ps
		closers = append(closers, func() { ps.Close() })
	}
	if path := cfg.SynthOutput.CapturePath; path != "" {
		cs := midi.NewCaptureSink(cfg.Sequencer.BPQ, cfg.Sequencer.Tempo, sink)
		sink = cs
		// runs before the port closes
		closers = append([]func(){func() {
			if err := cs.Save(path); err != nil {
				debug.Warn("midi", "capture: %v", err)
				return
			}
			debug.Info("midi", "wrote %d events to %s", cs.Len(), path)
		}}, closers...)
	}
	return sink, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}
