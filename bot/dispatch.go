package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	humanize "github.com/dustin/go-humanize"

	"github.com/onnwee/boot/db"
	"github.com/onnwee/boot/fetch"
	"github.com/onnwee/boot/telemetry"
)

// notifyCap bounds how many queued tells a user receives per message they
// send. Keeps a spammed recipient from flooding the channel; the rest stay
// queued for their next message.
const notifyCap = 2

// Store is the narrow persistence interface the dispatcher needs. *db.Store
// satisfies it. Every error is non-fatal: log and skip.
type Store interface {
	GetSeen(ctx context.Context, nick string) (*db.SeenRecord, error)
	UpsertSeen(ctx context.Context, rec db.SeenRecord) error
	AddNotification(ctx context.Context, n db.Notification) error
	TakeNotifications(ctx context.Context, recipient string, max int) ([]db.Notification, error)
	GetLocation(ctx context.Context, query string) (*db.LocationRecord, error)
	PutLocation(ctx context.Context, query string, rec db.LocationRecord) error
	GetWeatherPref(ctx context.Context, user string) (lat, lon float64, ok bool, err error)
	PutWeatherPref(ctx context.Context, user string, lat, lon float64) error
	GetCoinSnapshot(ctx context.Context, symbol string) (*db.CoinSnapshot, error)
	PutCoinSnapshot(ctx context.Context, snap db.CoinSnapshot) error
}

// Fetchers is the set of external-I/O operations the dispatcher awaits.
// *fetch.Fetcher satisfies it.
type Fetchers interface {
	Title(ctx context.Context, url string) (string, bool)
	Geocode(ctx context.Context, query string) (*db.LocationRecord, error)
	Weather(ctx context.Context, lat, lon float64) (*fetch.WeatherReport, error)
	CoinSeries(ctx context.Context, symbol, timeframe string) (*fetch.PriceSummary, error)
	LastfmRecent(ctx context.Context, user string) (string, error)
}

// Options configures a Dispatcher.
type Options struct {
	OwnNick   string
	BareGuess bool

	Store    Store
	Fetchers Fetchers
	Words    *WordList

	// CoinCacheWindow is how long a stored coin snapshot is served instead
	// of refetching. Zero disables the cache.
	CoinCacheWindow time.Duration

	// MaxFetchTasks bounds concurrently running fetch continuations.
	MaxFetchTasks int

	// ReplyBuffer sizes the reply sink channel.
	ReplyBuffer int
}

// Dispatcher consumes events on a single goroutine, runs command handlers,
// and pushes replies to one ordered sink. Anything that touches the network
// or the store runs as a spawned task with owned copies of the data it needs;
// the hangman session is mutated only on the loop goroutine.
type Dispatcher struct {
	ownNick    string
	classifier Classifier
	store      Store
	fetchers   Fetchers
	words      *WordList
	cacheWin   time.Duration

	replies chan Reply
	sem     chan struct{}
	wg      sync.WaitGroup

	game hangman

	// now is swappable for tests.
	now func() time.Time
}

// New builds a Dispatcher. The reply sink is buffered; the transport must
// drain it for the bot to make progress.
func New(opts Options) *Dispatcher {
	buf := opts.ReplyBuffer
	if buf <= 0 {
		buf = 64
	}
	tasks := opts.MaxFetchTasks
	if tasks <= 0 {
		tasks = 8
	}
	return &Dispatcher{
		ownNick:    opts.OwnNick,
		classifier: Classifier{OwnNick: opts.OwnNick, BareGuess: opts.BareGuess},
		store:      opts.Store,
		fetchers:   opts.Fetchers,
		words:      opts.Words,
		cacheWin:   opts.CoinCacheWindow,
		replies:    make(chan Reply, buf),
		sem:        make(chan struct{}, tasks),
		now:        time.Now,
	}
}

// Replies returns the ordered reply sink for the transport to drain.
func (d *Dispatcher) Replies() <-chan Reply { return d.replies }

// Run consumes events until the channel closes or ctx is canceled, then waits
// for in-flight tasks and closes the reply sink.
func (d *Dispatcher) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			d.wg.Wait()
			close(d.replies)
			return
		case ev, ok := <-events:
			if !ok {
				d.wg.Wait()
				close(d.replies)
				return
			}
			d.Handle(ctx, ev)
		}
	}
}

// Handle processes one event: passive enrichment (seen tracking, notification
// delivery, link titles) plus classification and command dispatch. A panic in
// any handler is recovered so the loop keeps running.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovered panic in event handler", slog.Any("panic", r), slog.String("source", ev.Source))
		}
	}()
	telemetry.EventsConsumed.Inc()

	d.recordSeen(ctx, ev)

	if ev.Kind != EventMessage {
		return
	}

	d.deliverNotifications(ctx, ev)
	d.processLinks(ctx, ev)

	cmd := d.classifier.Classify(ev.Text)
	telemetry.CommandsHandled.WithLabelValues(cmd.Kind.String()).Inc()

	switch cmd.Kind {
	case CmdIgnore:
	case CmdPlainReply:
		d.emit(ctx, Reply{Target: ev.Target, Text: cmd.Text})
	case CmdSeen:
		d.handleSeen(ctx, ev.Target, cmd.Nick)
	case CmdTell:
		d.handleTell(ctx, ev.Target, ev.Source, cmd.Nick, cmd.Message)
	case CmdWeather:
		d.handleWeather(ctx, ev.Target, ev.Source, cmd.Location)
	case CmdLocation:
		d.handleLocation(ctx, ev.Target, cmd.Location)
	case CmdCoins:
		d.handleCoins(ctx, ev.Target, cmd.Symbol, cmd.Timeframe)
	case CmdLastfm:
		d.handleLastfm(ctx, ev.Target, cmd.Nick)
	case CmdHangStart:
		d.handleHangStart(ctx, ev.Target, cmd.Difficulty)
	case CmdHangGuess:
		// Session mutations stay on the loop goroutine that owns them.
		if msg, ok := d.game.guess(cmd.Guess); ok {
			if !d.game.active {
				outcome := "loss"
				if strings.HasPrefix(msg, "You win") {
					outcome = "win"
				}
				telemetry.HangmanGames.WithLabelValues(outcome).Inc()
			}
			d.emit(ctx, Reply{Target: ev.Target, Text: msg})
		}
	}
}

// emit pushes one reply to the sink, respecting cancellation.
func (d *Dispatcher) emit(ctx context.Context, r Reply) {
	select {
	case d.replies <- r:
		telemetry.RepliesEmitted.Inc()
		telemetry.SetReplyBacklog(len(d.replies))
	case <-ctx.Done():
	}
}

// spawn runs fn as an independent task bounded by the fetch semaphore. The
// task gets owned copies of whatever it captured; results come back only
// through the reply sink.
func (d *Dispatcher) spawn(ctx context.Context, fn func(context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in task", slog.Any("panic", r))
			}
		}()
		select {
		case d.sem <- struct{}{}:
			defer func() { <-d.sem }()
		case <-ctx.Done():
			return
		}
		fn(ctx)
	}()
}

// recordSeen updates the seen table with what this user is doing now.
func (d *Dispatcher) recordSeen(ctx context.Context, ev Event) {
	var activity string
	switch ev.Kind {
	case EventMessage:
		activity = "saying: " + ev.Text
	case EventKick:
		activity = "being kicked from " + ev.Target
	case EventQuit:
		activity = "quitting"
	default:
		return
	}
	rec := db.SeenRecord{Username: ev.Source, Message: activity, SeenAt: d.now().UTC()}
	d.spawn(ctx, func(ctx context.Context) {
		if err := d.store.UpsertSeen(ctx, rec); err != nil {
			slog.Error("seen upsert failed", slog.Any("err", err), slog.String("user", rec.Username))
		}
	})
}

// deliverNotifications hands the speaker up to notifyCap queued tells.
// Delivery is at-most-once: the store removes rows before we emit.
func (d *Dispatcher) deliverNotifications(ctx context.Context, ev Event) {
	target, source := ev.Target, ev.Source
	d.spawn(ctx, func(ctx context.Context) {
		notes, err := d.store.TakeNotifications(ctx, source, notifyCap)
		if err != nil {
			slog.Error("notification check failed", slog.Any("err", err), slog.String("user", source))
			return
		}
		for _, n := range notes {
			d.emit(ctx, Reply{Target: target, Text: fmt.Sprintf("%s, message from %s: %s", source, n.Via, n.Message)})
			telemetry.NotificationsDelivered.Inc()
		}
	})
}

var linkPattern = regexp.MustCompile(`https?://\S+`)

// processLinks fetches the title of every URL pasted into a channel.
func (d *Dispatcher) processLinks(ctx context.Context, ev Event) {
	if len(ev.Target) == 0 || ev.Target[0] != '#' {
		return
	}
	links := linkPattern.FindAllString(ev.Text, -1)
	target := ev.Target
	for _, link := range links {
		link := link
		d.spawn(ctx, func(ctx context.Context) {
			if title, ok := d.fetchers.Title(ctx, link); ok {
				d.emit(ctx, Reply{Target: target, Text: "↪ " + title})
			}
		})
	}
}

func (d *Dispatcher) handleSeen(ctx context.Context, target, nick string) {
	d.spawn(ctx, func(ctx context.Context) {
		rec, err := d.store.GetSeen(ctx, nick)
		switch {
		case err != nil:
			slog.Error("seen lookup failed", slog.Any("err", err), slog.String("nick", nick))
			d.emit(ctx, Reply{Target: target, Text: "SQL error"})
		case rec == nil:
			d.emit(ctx, Reply{Target: target, Text: fmt.Sprintf("%s has not previously been seen", nick)})
		default:
			d.emit(ctx, Reply{Target: target, Text: fmt.Sprintf("%s was last seen %s %s", rec.Username, humanize.Time(rec.SeenAt), rec.Message)})
		}
	})
}

func (d *Dispatcher) handleTell(ctx context.Context, target, source, nick, message string) {
	d.spawn(ctx, func(ctx context.Context) {
		err := d.store.AddNotification(ctx, db.Notification{Recipient: nick, Via: source, Message: message})
		if err != nil {
			// Swallowed: the user gets no confirmation and the tell is lost.
			slog.Error("tell insert failed", slog.Any("err", err), slog.String("recipient", nick))
			return
		}
		d.emit(ctx, Reply{Target: target, Text: fmt.Sprintf("Ok, I'll tell %s that", nick)})
	})
}

// handleWeather resolves coordinates (stored preference, cached location, or
// a fresh geocode) and fetches current conditions. The whole continuation is
// one spawned task so the event loop never waits on the network.
func (d *Dispatcher) handleWeather(ctx context.Context, target, source, location string) {
	d.spawn(ctx, func(ctx context.Context) {
		var lat, lon float64

		if location == "" {
			storedLat, storedLon, ok, err := d.store.GetWeatherPref(ctx, source)
			if err != nil {
				slog.Error("weather pref lookup failed", slog.Any("err", err), slog.String("user", source))
				return
			}
			if !ok {
				d.emit(ctx, Reply{Target: target, Text: weatherHint})
				return
			}
			lat, lon = storedLat, storedLon
		} else {
			rec, err := d.store.GetLocation(ctx, location)
			if err != nil {
				slog.Error("location cache lookup failed", slog.Any("err", err), slog.String("loc", location))
				rec = nil
			}
			if rec == nil {
				rec, err = d.fetchers.Geocode(ctx, location)
				if errors.Is(err, fetch.ErrNoResult) {
					d.emit(ctx, Reply{Target: target, Text: "Unable to fetch location for " + location})
					return
				}
				if err != nil {
					slog.Error("geocode failed", slog.Any("err", err), slog.String("loc", location))
					return
				}
				if err := d.store.PutLocation(ctx, location, *rec); err != nil {
					slog.Error("location cache write failed", slog.Any("err", err), slog.String("loc", location))
				}
			}
			lat, lon = rec.Lat, rec.Lon
			if err := d.store.PutWeatherPref(ctx, source, lat, lon); err != nil {
				slog.Error("weather pref write failed", slog.Any("err", err), slog.String("user", source))
			}
		}

		report, err := d.fetchers.Weather(ctx, lat, lon)
		if err != nil {
			slog.Error("weather fetch failed", slog.Any("err", err), slog.String("user", source))
			return
		}
		d.emit(ctx, Reply{Target: target, Text: fetch.FormatWeather(report)})
	})
}

func (d *Dispatcher) handleLocation(ctx context.Context, target, location string) {
	d.spawn(ctx, func(ctx context.Context) {
		rec, err := d.store.GetLocation(ctx, location)
		if err != nil {
			slog.Error("location cache lookup failed", slog.Any("err", err), slog.String("loc", location))
			rec = nil
		}
		if rec == nil {
			rec, err = d.fetchers.Geocode(ctx, location)
			if err != nil {
				if !errors.Is(err, fetch.ErrNoResult) {
					slog.Error("geocode failed", slog.Any("err", err), slog.String("loc", location))
				}
				d.emit(ctx, Reply{Target: target, Text: "Unable to fetch location for " + location})
				return
			}
			if err := d.store.PutLocation(ctx, location, *rec); err != nil {
				slog.Error("location cache write failed", slog.Any("err", err), slog.String("loc", location))
			}
		}
		d.emit(ctx, Reply{Target: target, Text: formatLocation(location, rec)})
	})
}

// formatLocation renders the map-link reply for a resolved location.
func formatLocation(query string, rec *db.LocationRecord) string {
	place := rec.Country
	if rec.City != "" {
		place = rec.City + ", " + rec.Country
	}
	if place == "" {
		place = query
	}
	return fmt.Sprintf("%s: https://www.openstreetmap.org/?mlat=%.5f&mlon=%.5f", place, rec.Lat, rec.Lon)
}

// handleCoins serves the cached snapshot within the freshness window,
// otherwise fetches, persists, and emits the graph line then the stats line.
func (d *Dispatcher) handleCoins(ctx context.Context, target, symbol, timeframe string) {
	d.spawn(ctx, func(ctx context.Context) {
		if d.cacheWin > 0 {
			snap, err := d.store.GetCoinSnapshot(ctx, symbol)
			if err != nil {
				slog.Error("coin snapshot lookup failed", slog.Any("err", err), slog.String("symbol", symbol))
			} else if snap != nil && d.now().Sub(snap.AsOf) < d.cacheWin {
				d.emit(ctx, Reply{Target: target, Text: snap.GraphLine})
				d.emit(ctx, Reply{Target: target, Text: snap.StatsLine})
				return
			}
		}

		summary, err := d.fetchers.CoinSeries(ctx, symbol, timeframe)
		if err != nil {
			slog.Error("coin fetch failed", slog.Any("err", err), slog.String("symbol", symbol), slog.String("timeframe", timeframe))
			return
		}
		if err := d.store.PutCoinSnapshot(ctx, db.CoinSnapshot{
			Symbol: symbol, AsOf: d.now().UTC(),
			GraphLine: summary.GraphLine, StatsLine: summary.StatsLine,
		}); err != nil {
			slog.Error("coin snapshot write failed", slog.Any("err", err), slog.String("symbol", symbol))
		}
		d.emit(ctx, Reply{Target: target, Text: summary.GraphLine})
		d.emit(ctx, Reply{Target: target, Text: summary.StatsLine})
	})
}

func (d *Dispatcher) handleLastfm(ctx context.Context, target, user string) {
	d.spawn(ctx, func(ctx context.Context) {
		line, err := d.fetchers.LastfmRecent(ctx, user)
		if err != nil {
			slog.Error("lastfm fetch failed", slog.Any("err", err), slog.String("user", user))
			d.emit(ctx, Reply{Target: target, Text: "No song data found!"})
			return
		}
		d.emit(ctx, Reply{Target: target, Text: line})
	})
}

func (d *Dispatcher) handleHangStart(ctx context.Context, target, difficulty string) {
	if d.game.active {
		d.emit(ctx, Reply{Target: target, Text: hangmanInProgress})
		return
	}
	if d.words == nil {
		slog.Warn("hangman disabled: no word list loaded")
		return
	}
	word, ok := d.words.Pick(difficulty)
	if !ok {
		slog.Warn("hangman: empty word bucket", slog.String("difficulty", difficulty))
		return
	}
	d.emit(ctx, Reply{Target: target, Text: d.game.start(word)})
}
