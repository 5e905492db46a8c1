// viewer is a terminal client for one expert's live calendar. It talks to the
// REST API for snapshots and bookings and listens for slot events on Redis.
//
// Usage:
//
//	viewer experts --search law --category Legal --page 2
//	viewer watch <expert-id> --retry-every 5s
//	viewer book <expert-id> --date 2024-06-10 --slot 10:00 --name "Asha Rao" --email asha@example.com --phone "+91 98765 43210"
//	viewer bookings --email asha@example.com
//	viewer status <booking-id> <confirmed|completed|cancelled> --email asha@example.com
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/expertbooking/config"
	"github.com/Domenick1991/expertbooking/internal/availability"
	"github.com/Domenick1991/expertbooking/internal/cache"
	"github.com/Domenick1991/expertbooking/internal/client"
	"github.com/Domenick1991/expertbooking/internal/domain"
	"github.com/Domenick1991/expertbooking/internal/logger"
	"github.com/Domenick1991/expertbooking/internal/realtime"
	"github.com/Domenick1991/expertbooking/internal/tracker"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const bookTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type env struct {
	cfg    *config.Config
	log    *zap.Logger
	api    *client.Client
	redis  *redis.Client
	stdin  io.Reader
	stdout io.Writer
}

func (e *env) deps() availability.Deps {
	return availability.Deps{
		Fetcher:   e.api,
		Channel:   realtime.NewRedisChannel(e.redis, e.cfg.Realtime.TopicPrefix, e.log.Named("realtime")),
		Submitter: e.api,
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return errors.New("missing command")
	}

	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.App.Env, "warn")
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := &env{
		cfg:    cfg,
		log:    log,
		api:    client.New(cfg.Client.BaseURL, cfg.Client.Timeout()),
		stdin:  stdin,
		stdout: stdout,
	}

	command, rest := args[0], args[1:]
	switch command {
	case "watch", "book":
		e.redis = cache.NewClient(cfg.Redis)
		defer e.redis.Close()
		if command == "watch" {
			return e.watch(ctx, rest)
		}
		return e.book(ctx, rest)
	case "experts":
		return e.experts(ctx, rest)
	case "bookings":
		return e.bookings(ctx, rest)
	case "status":
		return e.status(ctx, rest)
	case "help", "--help", "-h":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (e *env) watch(ctx context.Context, args []string) error {
	flagSet := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	ack := flagSet.Duration("ack", e.cfg.Realtime.AckDuration(), "how long a just-booked slot stays highlighted")
	retryEvery := flagSet.Duration("retry-every", 0, "reload a failed calendar on this interval (0 disables)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: viewer watch <expert-id>")
	}

	var input <-chan string
	if e.stdin != nil {
		input = lines(e.stdin)
	}
	views := make(chan availability.View, 16)
	return availability.WithView(ctx, flagSet.Arg(0), e.deps(), func(c *availability.Controller) error {
		return watchLoop(ctx, e.stdout, c, views, input, *retryEvery)
	},
		availability.WithAckDuration(*ack),
		availability.WithLogger(e.log),
		availability.WithOnChange(latest(views)),
	)
}

func (e *env) book(ctx context.Context, args []string) error {
	var req domain.BookingRequest
	flagSet := pflag.NewFlagSet("book", pflag.ContinueOnError)
	flagSet.StringVar(&req.Date, "date", "", "date as YYYY-MM-DD or DD-MM-YYYY")
	flagSet.StringVar(&req.TimeSlot, "slot", "", "time slot, e.g. 10:00")
	flagSet.StringVar(&req.UserName, "name", "", "your name")
	flagSet.StringVar(&req.Email, "email", "", "email for booking lookup")
	flagSet.StringVar(&req.Phone, "phone", "", "contact phone")
	flagSet.StringVar(&req.Notes, "notes", "", "optional notes")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: viewer book <expert-id> --date --slot --name --email --phone")
	}
	req.ExpertID = flagSet.Arg(0)

	views := make(chan availability.View, 16)
	return availability.WithView(ctx, req.ExpertID, e.deps(), func(c *availability.Controller) error {
		booked, err := c.Book(ctx, req)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				for field, msg := range verr.Fields {
					fmt.Fprintf(e.stdout, "  %s: %s\n", field, msg)
				}
			}
			return err
		}
		fmt.Fprintf(e.stdout, "booking %s created (%s)\n", booked.ID, booked.Status)

		date := booked.Date
		timeout := time.NewTimer(bookTimeout)
		defer timeout.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-timeout.C:
				if err := c.ClearSelection(); err != nil {
					return err
				}
				fmt.Fprintln(e.stdout, "no slot update received yet; the calendar will catch up on the next load")
				return nil
			case v := <-views:
				if v.IsAcknowledged(date, booked.TimeSlot) {
					render(e.stdout, v)
					return nil
				}
			}
		}
	},
		availability.WithAckDuration(e.cfg.Realtime.AckDuration()),
		availability.WithLogger(e.log),
		availability.WithOnChange(latest(views)),
	)
}

func (e *env) experts(ctx context.Context, args []string) error {
	var filter domain.ExpertFilter
	flagSet := pflag.NewFlagSet("experts", pflag.ContinueOnError)
	flagSet.StringVar(&filter.Search, "search", "", "match expert names")
	flagSet.StringVar(&filter.Category, "category", "", "only this category")
	flagSet.IntVar(&filter.Page, "page", 1, "page number")
	flagSet.IntVar(&filter.Limit, "limit", 0, "experts per page (server default when 0)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	page, err := e.api.ListExperts(ctx, filter)
	if err != nil {
		return err
	}
	renderExperts(e.stdout, page)
	return nil
}

func (e *env) bookings(ctx context.Context, args []string) error {
	flagSet := pflag.NewFlagSet("bookings", pflag.ContinueOnError)
	email := flagSet.String("email", "", "email used when booking")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	tr := tracker.New(e.api, e.log)
	list, err := tr.Lookup(ctx, *email)
	if err != nil {
		return err
	}
	renderBookings(e.stdout, list)
	return nil
}

func (e *env) status(ctx context.Context, args []string) error {
	flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
	email := flagSet.String("email", "", "email used when booking")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 2 {
		return errors.New("usage: viewer status <booking-id> <status> --email <email>")
	}

	tr := tracker.New(e.api, e.log)
	if _, err := tr.Lookup(ctx, *email); err != nil {
		return err
	}
	updated, err := tr.UpdateStatus(ctx, flagSet.Arg(0), domain.BookingStatus(flagSet.Arg(1)))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "booking %s is now %s\n", updated.ID, updated.Status)
	return nil
}

// latest forwards views without ever blocking the controller loop; when the
// reader falls behind the oldest buffered view is dropped.
func latest(views chan availability.View) func(availability.View) {
	return func(v availability.View) {
		for {
			select {
			case views <- v:
				return
			default:
			}
			select {
			case <-views:
			default:
			}
		}
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  viewer experts [--search S] [--category C] [--page N] [--limit N]
  viewer watch <expert-id> [--ack 2s] [--retry-every 5s]   (type r + Enter to reload)
  viewer book <expert-id> --date D --slot T --name N --email E --phone P [--notes X]
  viewer bookings --email E
  viewer status <booking-id> <confirmed|completed|cancelled> --email E
`)
}
