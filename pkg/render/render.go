package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// ContainerID is the id of the element holding the weekly menu
	ContainerID = "menu-container"

	// WeekTitleSelector selects the heading with the week number
	WeekTitleSelector = ".text-2xl.font-semibold"
)

var (
	// ErrNavigationTimeout is returned when the menu container never appears
	ErrNavigationTimeout = errors.New("menu container did not appear")

	// ErrElementNotFound is returned when an element could not be read
	ErrElementNotFound = errors.New("element not found")

	// ErrControlNotFound is returned when no control matches any label
	ErrControlNotFound = errors.New("control not found")
)

// Renderer opens page sessions. Every session must be closed by the caller.
type Renderer interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one browsing session. It is not safe for concurrent use.
type Session interface {
	Navigate(ctx context.Context, url string) error
	PageInfo(ctx context.Context) (PageInfo, error)

	// WaitReady waits until the menu container is present
	WaitReady(ctx context.Context, timeout time.Duration) error
	ContainerText(ctx context.Context) (string, error)
	WeekTitle(ctx context.Context) (string, error)

	// ClickText clicks the first element whose text contains one of labels,
	// labels are tried in order, each for at most timeout.
	// It returns the text of the clicked element.
	ClickText(ctx context.Context, labels []string, timeout time.Duration) (string, error)

	// Controls lists texts of clickable elements, used for diagnostics
	Controls(ctx context.Context) ([]string, error)

	Close() error
}

type PageInfo struct {
	Title string
	URL   string
}

// LooksMissing reports whether the page title suggests a missing page
func (p PageInfo) LooksMissing() bool {
	title := strings.ToLower(p.Title)
	return strings.Contains(title, "404") || strings.Contains(title, "not found")
}

// containsTextXPath matches any element with a text node containing label
func containsTextXPath(label string) string {
	return fmt.Sprintf("//*[contains(text(), %s)]", xpathLiteral(label))
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}
