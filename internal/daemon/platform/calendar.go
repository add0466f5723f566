package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"

	"github.com/glance-io/glance/internal/daemon/capability"
	"github.com/glance-io/glance/internal/daemon/state"
)

const eventsCacheKey = "events"

// GoogleCalendar lists upcoming events from the Google Calendar API. The
// OAuth client credentials and a token (with refresh token) are read from
// files; results are cached so polling does not hit API quotas.
type GoogleCalendar struct {
	capability.ReadOnly[state.Calendar]
	credentials string
	token       string
	calendarID  string
	lookahead   time.Duration
	now         func() time.Time
	cache       *cache.Cache

	mu  sync.Mutex
	svc *calendar.Service
}

// GoogleOptions configures a GoogleCalendar.
type GoogleOptions struct {
	CredentialsFile string
	TokenFile       string
	CalendarID      string
	Lookahead       time.Duration
	CacheTTL        time.Duration
	Now             func() time.Time
}

func NewGoogleCalendar(opts GoogleOptions) *GoogleCalendar {
	if opts.CalendarID == "" {
		opts.CalendarID = "primary"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	// No janitor: the single key is overwritten on every miss.
	return &GoogleCalendar{
		credentials: opts.CredentialsFile,
		token:       opts.TokenFile,
		calendarID:  opts.CalendarID,
		lookahead:   opts.Lookahead,
		now:         opts.Now,
		cache:       cache.New(opts.CacheTTL, 0),
	}
}

func (g *GoogleCalendar) Name() string { return "google-calendar" }

func (g *GoogleCalendar) Probe(ctx context.Context) bool {
	return fileExists(g.credentials) && fileExists(g.token)
}

func (g *GoogleCalendar) Read(ctx context.Context) (state.Calendar, error) {
	if cached, ok := g.cache.Get(eventsCacheKey); ok {
		return cached.(state.Calendar), nil
	}
	svc, err := g.service(ctx)
	if err != nil {
		return state.Calendar{}, err
	}
	now := g.now()
	resp, err := svc.Events.List(g.calendarID).Context(ctx).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.Add(g.lookahead).Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Do()
	if err != nil {
		return state.Calendar{}, fmt.Errorf("listing events: %w", err)
	}
	cal := state.Calendar{}
	for _, item := range resp.Items {
		if item.Status == "cancelled" {
			continue
		}
		cal.Events = append(cal.Events, convertEvent(item))
	}
	g.cache.Set(eventsCacheKey, cal, cache.DefaultExpiration)
	return cal, nil
}

func (g *GoogleCalendar) service(ctx context.Context) (*calendar.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.svc != nil {
		return g.svc, nil
	}
	creds, err := os.ReadFile(g.credentials)
	if err != nil {
		return nil, fmt.Errorf("reading google credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(creds, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}
	tok, err := loadToken(g.token)
	if err != nil {
		return nil, err
	}
	// The client outlives this call; it must not carry the poll's context.
	client := cfg.Client(context.Background(), tok)
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	g.svc = svc
	return svc, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading google token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parsing google token: %w", err)
	}
	return &tok, nil
}

func convertEvent(e *calendar.Event) state.Event {
	ev := state.Event{ID: e.Id, Title: e.Summary, Location: e.Location}
	if e.Start != nil {
		if e.Start.DateTime != "" {
			ev.Start, _ = time.Parse(time.RFC3339, e.Start.DateTime)
		} else if e.Start.Date != "" {
			ev.Start, _ = time.ParseInLocation(time.DateOnly, e.Start.Date, time.Local)
			ev.AllDay = true
		}
	}
	if e.End != nil {
		if e.End.DateTime != "" {
			ev.End, _ = time.Parse(time.RFC3339, e.End.DateTime)
		} else if e.End.Date != "" {
			ev.End, _ = time.ParseInLocation(time.DateOnly, e.End.Date, time.Local)
		}
	}
	return ev
}

// eventsFile is the layout of events.yaml.
type eventsFile struct {
	Events []state.Event `yaml:"events"`
}

// EventsFile reads a hand-maintained events.yaml. A missing file is an
// empty calendar.
type EventsFile struct {
	capability.ReadOnly[state.Calendar]
	path      string
	lookahead time.Duration
	now       func() time.Time
}

func NewEventsFile(path string, lookahead time.Duration, now func() time.Time) *EventsFile {
	if now == nil {
		now = time.Now
	}
	return &EventsFile{path: path, lookahead: lookahead, now: now}
}

func (f *EventsFile) Name() string { return "events-file" }

func (f *EventsFile) Probe(ctx context.Context) bool { return f.path != "" }

func (f *EventsFile) Read(ctx context.Context) (state.Calendar, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return state.Calendar{}, nil
	}
	if err != nil {
		return state.Calendar{}, fmt.Errorf("reading events file: %w", err)
	}
	var doc eventsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return state.Calendar{}, fmt.Errorf("parsing events file: %w", err)
	}
	return upcoming(doc.Events, f.now(), f.lookahead), nil
}

// upcoming keeps events that have not ended and start within lookahead,
// sorted by start. A zero lookahead keeps every future event.
func upcoming(events []state.Event, now time.Time, lookahead time.Duration) state.Calendar {
	var cal state.Calendar
	for _, e := range events {
		end := e.End
		if end.IsZero() {
			end = e.Start
		}
		if end.Before(now) {
			continue
		}
		if lookahead > 0 && e.Start.After(now.Add(lookahead)) {
			continue
		}
		cal.Events = append(cal.Events, e)
	}
	sort.SliceStable(cal.Events, func(i, j int) bool {
		return cal.Events[i].Start.Before(cal.Events[j].Start)
	})
	return cal
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
