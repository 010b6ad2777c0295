package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kotrzina/skolmaten/pkg/menu"
	"github.com/kotrzina/skolmaten/pkg/render"
	"github.com/sirupsen/logrus"
)

const (
	// used when the week heading cannot be read
	unknownWeekTitle = "Unknown Week"

	// container text shorter than this is suspicious
	shortTextLimit = 50

	controlTimeout = 1 * time.Second
)

type NextWeekStatus string

const (
	NextWeekNotRequested NextWeekStatus = "not_requested"
	NextWeekFetched      NextWeekStatus = "fetched"
	NextWeekUnavailable  NextWeekStatus = "unavailable" // no next week control on the page
)

// Result is the menu of one source, current week first
type Result struct {
	Entries  []menu.DayEntry
	NextWeek NextWeekStatus
}

// FetchError wraps any failure of a fetch together with the source slug
type FetchError struct {
	Slug string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("could not fetch menu of %s: %v", e.Slug, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher drives a renderer through the menu page of a source.
// It never retries, that is up to the caller.
type Fetcher struct {
	renderer       render.Renderer
	parser         *menu.Parser
	baseURL        string
	nextWeekLabels []string
	readyTimeout   time.Duration
	logger         *logrus.Logger
}

func New(
	renderer render.Renderer,
	vocabulary menu.Vocabulary,
	baseURL string,
	readyTimeout time.Duration,
	logger *logrus.Logger,
) *Fetcher {
	return &Fetcher{
		renderer:       renderer,
		parser:         menu.NewParser(vocabulary),
		baseURL:        baseURL,
		nextWeekLabels: vocabulary.NextWeek,
		readyTimeout:   readyTimeout,
		logger:         logger,
	}
}

// URL returns the canonical menu page of a source
func (f *Fetcher) URL(slug string) string {
	return f.baseURL + "/" + slug
}

// Fetch returns the menu of the current week and, when includeNextWeek
// is set and the page offers it, of the next week.
// Every error is a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, slug string, includeNextWeek bool) (Result, error) {
	log := f.logger.WithField("slug", slug)

	session, err := f.renderer.Open(ctx)
	if err != nil {
		return Result{}, &FetchError{Slug: slug, Err: err}
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warnf("Could not close render session: %v", cerr)
		}
	}()

	result, err := f.fetch(ctx, session, slug, includeNextWeek, log)
	if err != nil {
		return Result{}, &FetchError{Slug: slug, Err: err}
	}

	log.Infof("Total menu entries found: %d", len(result.Entries))
	return result, nil
}

func (f *Fetcher) fetch(
	ctx context.Context,
	session render.Session,
	slug string,
	includeNextWeek bool,
	log *logrus.Entry,
) (Result, error) {
	url := f.URL(slug)
	log.Infof("Navigating to %s", url)
	if err := session.Navigate(ctx, url); err != nil {
		return Result{}, err
	}

	if info, err := session.PageInfo(ctx); err == nil {
		log.Debugf("Page loaded - title: %q, url: %q", info.Title, info.URL)
		if info.LooksMissing() {
			log.Warnf("Possible 404 page detected, title: %q", info.Title)
		}
	}

	entries, err := f.readWeek(ctx, session, log)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Entries:  entries,
		NextWeek: NextWeekNotRequested,
	}
	if !includeNextWeek {
		return result, nil
	}

	label, err := session.ClickText(ctx, f.nextWeekLabels, controlTimeout)
	if errors.Is(err, render.ErrControlNotFound) {
		log.Warn("Could not find next week control, using current week only")
		if controls, cerr := session.Controls(ctx); cerr == nil {
			log.Debugf("Available controls: %q", controls)
		}
		result.NextWeek = NextWeekUnavailable
		return result, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("could not open next week: %w", err)
	}
	log.Debugf("Clicked next week control %q", label)

	next, err := f.readWeek(ctx, session, log)
	if err != nil {
		return Result{}, fmt.Errorf("could not read next week: %w", err)
	}

	result.Entries = append(result.Entries, next...)
	result.NextWeek = NextWeekFetched

	return result, nil
}

func (f *Fetcher) readWeek(ctx context.Context, session render.Session, log *logrus.Entry) ([]menu.DayEntry, error) {
	if err := session.WaitReady(ctx, f.readyTimeout); err != nil {
		return nil, err
	}

	text, err := session.ContainerText(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not read menu container: %w", err)
	}
	if len(text) < shortTextLimit {
		log.Warnf("Menu container text is very short: %q", text)
	}

	title, err := session.WeekTitle(ctx)
	if err != nil {
		log.Warnf("Could not read week title: %v", err)
		title = unknownWeekTitle
	}

	entries := f.parser.Parse(text, title)
	log.WithFields(logrus.Fields{
		"week_title": title,
		"days":       len(entries),
	}).Info("Menu week parsed")

	return entries, nil
}
