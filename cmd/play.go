package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/playcore/playcore/engine"
	"github.com/playcore/playcore/event"
	"github.com/playcore/playcore/history"
	"github.com/playcore/playcore/host"
	"github.com/playcore/playcore/icon"
	"github.com/playcore/playcore/key"
	"github.com/playcore/playcore/log"
	"github.com/playcore/playcore/style"
	"github.com/playcore/playcore/util"
	"github.com/playcore/playcore/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

const (
	releaseTimeout = 5 * time.Second
	statusInterval = time.Second
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("engine", "e", "", "Engine backend, defaults to engine.default")
	_ = playCmd.RegisterFlagCompletionFunc("engine", completionEngines)

	playCmd.Flags().BoolP("continue", "c", false, "Resume from the last recorded position")
	playCmd.Flags().Int("loop", 1, "Total number of plays, 0 loops forever")
	playCmd.Flags().Float64("speed", 1, "Playback speed")
	playCmd.Flags().Float64("volume", 1, "Volume between 0 and 1")
	playCmd.Flags().Int64("seek", 0, "Start position in milliseconds")
	playCmd.Flags().StringSliceP("option", "o", nil, "Engine option as category:name=value, e.g. format:probesize=32")
	playCmd.Flags().BoolP("json", "j", false, "Print events as JSON lines, the default when stdout is not a terminal")
}

func completionEngines(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return host.Engines, cobra.ShellCompDirectiveNoFileComp
}

// engineName returns the --engine flag or engine.default, rejecting unknown names.
func engineName(cmd *cobra.Command) string {
	name := lo.Must(cmd.Flags().GetString("engine"))
	if name == "" {
		name = viper.GetString(key.EngineDefault)
	}
	if !slices.Contains(host.Engines, name) {
		handleErr(errUnknown("engine", name, host.Engines))
	}
	return name
}

// parseOption reads category:name=value.
func parseOption(s string) (engine.Option, error) {
	category, rest, ok := strings.Cut(s, ":")
	if !ok {
		return engine.Option{}, fmt.Errorf("option %q: expected category:name=value", s)
	}
	name, value, ok := strings.Cut(rest, "=")
	if !ok || name == "" {
		return engine.Option{}, fmt.Errorf("option %q: expected category:name=value", s)
	}

	for c := engine.CategoryHost; c <= engine.CategoryPlayer; c++ {
		if c.String() == category {
			return engine.Option{Category: c, Name: name, Value: value}, nil
		}
	}
	return engine.Option{}, fmt.Errorf("option %q: unknown category %q", s, category)
}

var playCmd = &cobra.Command{
	Use:   "play <uri>",
	Short: "Play a source in a new session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		asJSON := lo.Must(cmd.Flags().GetBool("json")) || !util.IsTerminal()

		var options []engine.Option
		for _, raw := range lo.Must(cmd.Flags().GetStringSlice("option")) {
			opt, err := parseOption(raw)
			handleErr(err)
			options = append(options, opt)
		}

		h, err := host.FromConfigWith(engineName(cmd))
		handleErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p := &player{
			host:    h,
			uri:     args[0],
			asJSON:  asJSON,
			events:  make(chan event.Event, 256),
			options: options,
			loop:    lo.Must(cmd.Flags().GetInt("loop")),
			speed:   lo.Must(cmd.Flags().GetFloat64("speed")),
			volume:  lo.Must(cmd.Flags().GetFloat64("volume")),
			seek:    lo.Must(cmd.Flags().GetInt64("seek")),
		}
		if lo.Must(cmd.Flags().GetBool("continue")) {
			p.seek = resumePosition(args[0], p.seek)
		}

		err = p.run(ctx)

		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if releaseErr := h.ReleaseAll(releaseCtx); releaseErr != nil {
			log.Warnf("release: %s", releaseErr)
		}

		handleErr(err)
	},
}

// resumePosition returns the recorded position of uri, or fallback.
func resumePosition(uri string, fallback int64) int64 {
	pos, ok := history.Open(where.History()).Lookup(uri).Get()
	if !ok || !pos.Resumable() {
		return fallback
	}
	return pos.Position
}

// player runs one session until it completes, fails or ctx ends.
type player struct {
	host    *host.Host
	id      int64
	uri     string
	asJSON  bool
	events  chan event.Event
	options []engine.Option

	loop   int
	speed  float64
	volume float64
	seek   int64
}

func (p *player) consume(e event.Event) {
	select {
	case p.events <- e:
	default:
		log.Session(e.SessionID).Warnf("event %s dropped, printer is behind", e.Payload.Name())
	}
}

func (p *player) run(ctx context.Context) error {
	id, err := p.host.Create(ctx)
	if err != nil {
		return err
	}
	p.id = id

	if err := p.host.AttachConsumer(id, event.ConsumerFunc(p.consume)); err != nil {
		return err
	}
	p.host.AttachCoordinatorConsumer(event.ConsumerFunc(p.consume))

	for _, opt := range p.options {
		if err := p.host.SetOption(ctx, id, opt.Category, opt.Name, opt.Value); err != nil {
			return err
		}
	}
	if err := p.host.SetSource(ctx, id, p.uri); err != nil {
		return err
	}
	if err := p.host.PrepareAsync(ctx, id); err != nil {
		return err
	}

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.println(style.Faint("interrupted"))
			return nil
		case <-ticker.C:
			p.status(ctx)
		case e := <-p.events:
			p.print(e)

			done, err := p.react(ctx, e)
			if err != nil || done {
				return err
			}
		}
	}
}

// react advances playback on lifecycle events and reports when it is over.
func (p *player) react(ctx context.Context, e event.Event) (bool, error) {
	switch payload := e.Payload.(type) {
	case event.Prepared:
		if err := p.host.SetLoopCount(ctx, p.id, p.loop); err != nil {
			return false, err
		}
		if err := p.host.SetSpeed(ctx, p.id, p.speed); err != nil {
			return false, err
		}
		if err := p.host.SetVolume(ctx, p.id, p.volume, p.volume); err != nil {
			return false, err
		}
		if p.seek > 0 && (payload.Duration == 0 || p.seek < payload.Duration) {
			if err := p.host.SeekTo(ctx, p.id, p.seek); err != nil {
				return false, err
			}
		}
		return false, p.host.Start(ctx, p.id)
	case event.Completed:
		return true, nil
	case event.Error:
		return true, fmt.Errorf("engine error %d (extra %d)", payload.Code, payload.Extra)
	}
	return false, nil
}

func (p *player) print(e event.Event) {
	if p.asJSON {
		data, err := json.Marshal(e)
		if err != nil {
			log.Warnf("marshal event: %s", err)
			return
		}
		fmt.Println(string(data))
		return
	}

	switch payload := e.Payload.(type) {
	case event.StateChanged:
		p.println(fmt.Sprintf("%s %s", icon.Get(stateIcon(payload.State)), style.Fg(style.StateColor(payload.State))(payload.State)))
	case event.Prepared:
		p.println(fmt.Sprintf("%s prepared %s %s", icon.Get(icon.Event), formatMillis(payload.Duration), style.Faint(fmt.Sprintf("%dx%d", payload.Width, payload.Height))))
	case event.BufferingUpdate:
		p.println(fmt.Sprintf("%s buffering %d%%", icon.Get(icon.Buffering), payload.Percent))
	case event.Error:
		p.println(fmt.Sprintf("%s error %d/%d", style.Fg(style.ErrorColor)(icon.Get(icon.Fail)), payload.Code, payload.Extra))
	default:
		p.println(fmt.Sprintf("%s %s", icon.Get(icon.Event), style.Faint(e.String())))
	}
}

// status prints the current position on a single rewritten line.
func (p *player) status(ctx context.Context) {
	if p.asJSON {
		return
	}
	pos, err := p.host.CurrentPosition(ctx, p.id)
	if err != nil {
		return
	}
	d, _ := p.host.Duration(ctx, p.id)

	line := fmt.Sprintf("%s / %s", formatMillis(pos), formatMillis(d))
	fmt.Print("\r" + style.Faint(util.Truncate(line)))
}

func (p *player) println(s string) {
	if p.asJSON {
		return
	}
	fmt.Print("\r\033[K")
	fmt.Println(s)
}

func stateIcon(name string) icon.Icon {
	switch name {
	case "started":
		return icon.Play
	case "paused":
		return icon.Pause
	case "stopped", "end":
		return icon.Stop
	case "preparing":
		return icon.Buffering
	case "error":
		return icon.Fail
	default:
		return icon.Event
	}
}

func formatMillis(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}
