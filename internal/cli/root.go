package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ktail/formatter"
	"ktail/internal/config"
	"ktail/internal/engine"
)

// RunFunc executes a validated request; engine.Run in production.
type RunFunc func(ctx context.Context, req engine.Request) error

type flags struct {
	opts           config.Options
	formatter      string
	properties     []string
	settings       string
	driver         string
	discovery      string
	logLevel       string
	output         string
	truncate       bool
	maxRecords     int
	idle           time.Duration
	listFormatters bool
}

// NewRootCommand builds the ktail command. rng seeds the default group id.
func NewRootCommand(run RunFunc, rng *rand.Rand) *cobra.Command {
	f := &flags{opts: config.DefaultOptions(rng)}

	cmd := &cobra.Command{
		Use:   "ktail --topic <topic> --zk-urls <host:port[/chroot]> [flags]",
		Short: "ktail joins a consumer group and prints a topic's records to stdout",
		Long: "ktail joins a consumer group, subscribes to one topic and writes every\n" +
			"record to stdout through a pluggable formatter, in the order received.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.listFormatters {
				for _, n := range formatter.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}
			req, err := f.request()
			if err != nil {
				return err
			}
			return run(cmd.Context(), req)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Reason: err.Error()}
	})

	fl := cmd.Flags()
	fl.SortFlags = false
	fl.StringVarP(&f.opts.Topic, "topic", "t", "", "topic to consume (required)")
	fl.StringVarP(&f.opts.ZKURLs, "zk-urls", "z", "", "ZooKeeper connection string host:port[,host:port][/chroot] (required)")
	fl.StringVarP(&f.opts.GroupID, "group", "g", f.opts.GroupID, "consumer group id")
	fl.IntVarP(&f.opts.FetchSize, "fetch-size", "s", f.opts.FetchSize, "bytes to fetch per request")
	fl.IntVarP(&f.opts.SocketBufferSize, "socket-buffer-size", "b", f.opts.SocketBufferSize, "socket receive buffer in bytes")
	fl.StringVarP(&f.formatter, "formatter", "f", formatter.DefaultName, "formatter id (see --list-formatters)")
	fl.StringArrayVarP(&f.properties, "property", "p", nil, "formatter property key=value (repeatable)")
	fl.BoolVar(&f.opts.FromBeginning, "from-beginning", false, "start from the earliest offset when the group has none")
	fl.StringVar(&f.opts.OffsetReset, "offset-reset", f.opts.OffsetReset, "where to start without a committed offset: earliest|latest")
	fl.IntVarP(&f.maxRecords, "max-messages", "n", 0, "stop after this many records (0 = unbounded)")
	fl.DurationVar(&f.idle, "idle-timeout", 0, "stop when no record arrives for this long (0 = wait forever)")
	fl.StringVarP(&f.output, "output", "o", "-", "write records to this file instead of stdout")
	fl.BoolVar(&f.truncate, "truncate", false, "truncate the --output file instead of appending")
	fl.StringVar(&f.driver, "driver", "", "client driver: sarama|kafka-go|franz (default from settings)")
	fl.StringVar(&f.discovery, "discovery", "", "broker discovery: zookeeper|static (default from settings)")
	fl.StringVar(&f.settings, "config", "", "settings file (YAML)")
	fl.StringVar(&f.logLevel, "log-level", "", "debug|info|warn|error (default from settings)")
	fl.BoolVar(&f.listFormatters, "list-formatters", false, "print the registered formatter ids and exit")
	return cmd
}

// request validates the flags in the order failures are reported: missing
// options, then formatter properties, then option values.
func (f *flags) request() (engine.Request, error) {
	var missing []string
	if strings.TrimSpace(f.opts.Topic) == "" {
		missing = append(missing, "--topic")
	}
	if strings.TrimSpace(f.opts.ZKURLs) == "" {
		missing = append(missing, "--zk-urls")
	}
	if len(missing) > 0 {
		return engine.Request{}, &UsageError{Reason: "missing required " + strings.Join(missing, ", ")}
	}

	props, err := formatter.ParseProperties(f.properties)
	if err != nil {
		return engine.Request{}, err
	}
	sub, err := config.Build(f.opts)
	if err != nil {
		return engine.Request{}, err
	}
	return engine.Request{
		Subscription: sub,
		Formatter:    f.formatter,
		Properties:   props,
		SettingsPath: f.settings,
		Driver:       f.driver,
		Discovery:    f.discovery,
		LogLevel:     f.logLevel,
		Output:       f.output,
		Truncate:     f.truncate,
		MaxRecords:   f.maxRecords,
		IdleTimeout:  f.idle,
	}, nil
}

// Execute runs the command line and returns the exit code. Every failure is
// reported as one "ktail: ..." line on stderr; usage errors add the usage.
// A nil stdout means the process stdout.
func Execute(ctx context.Context, run RunFunc, args []string, stdout, stderr io.Writer) int {
	withOut := func(ctx context.Context, req engine.Request) error {
		req.Stdout = stdout
		return run(ctx, req)
	}
	cmd := NewRootCommand(withOut, rand.New(rand.NewSource(time.Now().UnixNano())))
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if code := ExitCode(err); code != 0 {
		fmt.Fprintf(stderr, "ktail: %v\n", err)
		var ue *UsageError
		if errors.As(err, &ue) {
			fmt.Fprint(stderr, cmd.UsageString())
		}
		return code
	}
	return 0
}
