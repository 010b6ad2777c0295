package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const (
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	navigateTimeout = 30 * time.Second
	readTimeout     = 5 * time.Second
	titleTimeout    = 2 * time.Second

	// the page fills the container asynchronously after it is attached
	defaultSettle = 2 * time.Second
)

const controlsScript = `Array.from(document.querySelectorAll("button, a, [role='button']"))
	.map(e => (e.innerText || "").trim())
	.filter(t => t.length > 0)`

// Chrome renders pages in a headless Chrome driven over the DevTools protocol
type Chrome struct {
	execPath string
	settle   time.Duration
	logger   *logrus.Logger
}

func NewChrome(execPath string, logger *logrus.Logger) *Chrome {
	return &Chrome{
		execPath: execPath,
		settle:   defaultSettle,
		logger:   logger,
	}
}

// Open starts a new browser process. The browser lives until Close,
// cancelling ctx kills it as well.
func (c *Chrome) Open(ctx context.Context) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(
		allocCtx,
		chromedp.WithLogf(c.logger.Debugf),
		chromedp.WithErrorf(c.logger.Debugf),
	)

	// first Run starts the browser
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("could not start browser: %w", err)
	}

	c.logger.Debug("Chrome browser started")

	return &chromeSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		settle:      c.settle,
	}, nil
}

type chromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	settle      time.Duration
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx
func (s *chromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, navigateTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("could not navigate to %s: %w", url, err)
	}
	return nil
}

func (s *chromeSession) PageInfo(ctx context.Context) (PageInfo, error) {
	var info PageInfo
	err := s.run(ctx, readTimeout,
		chromedp.Title(&info.Title),
		chromedp.Location(&info.URL),
	)
	if err != nil {
		return PageInfo{}, fmt.Errorf("could not read page info: %w", err)
	}
	return info, nil
}

func (s *chromeSession) WaitReady(ctx context.Context, timeout time.Duration) error {
	err := s.run(ctx, timeout, chromedp.WaitReady("#"+ContainerID, chromedp.ByQuery))
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: #%s within %s", ErrNavigationTimeout, ContainerID, timeout)
	}
	if err != nil {
		return fmt.Errorf("could not wait for #%s: %w", ContainerID, err)
	}

	if err := s.run(ctx, s.settle+time.Second, chromedp.Sleep(s.settle)); err != nil {
		return fmt.Errorf("could not wait for page to render: %w", err)
	}

	return nil
}

func (s *chromeSession) ContainerText(ctx context.Context) (string, error) {
	return s.text(ctx, "#"+ContainerID, readTimeout)
}

func (s *chromeSession) WeekTitle(ctx context.Context) (string, error) {
	return s.text(ctx, WeekTitleSelector, titleTimeout)
}

func (s *chromeSession) text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	var text string
	err := s.run(ctx, timeout, chromedp.Text(selector, &text, chromedp.ByQuery))
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	if err != nil {
		return "", fmt.Errorf("could not read %s: %w", selector, err)
	}
	return text, nil
}

func (s *chromeSession) ClickText(ctx context.Context, labels []string, timeout time.Duration) (string, error) {
	for _, label := range labels {
		xpath := containsTextXPath(label)

		var text string
		err := s.run(ctx, timeout,
			chromedp.WaitVisible(xpath, chromedp.BySearch),
			chromedp.Text(xpath, &text, chromedp.BySearch),
		)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}

		if err := s.run(ctx, readTimeout, chromedp.Click(xpath, chromedp.BySearch)); err != nil {
			return "", fmt.Errorf("could not click %q: %w", label, err)
		}

		return strings.TrimSpace(text), nil
	}

	return "", fmt.Errorf("%w: %s", ErrControlNotFound, strings.Join(labels, ", "))
}

func (s *chromeSession) Controls(ctx context.Context) ([]string, error) {
	var texts []string
	if err := s.run(ctx, readTimeout, chromedp.Evaluate(controlsScript, &texts)); err != nil {
		return nil, fmt.Errorf("could not list controls: %w", err)
	}
	return texts, nil
}

// Close shuts the browser down
func (s *chromeSession) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancelTab()
	s.cancelAlloc()

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("could not close browser: %w", err)
	}
	return nil
}
