package render

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// FakePage is a page served by FakeRenderer
type FakePage struct {
	Title     string
	WeekTitle string // empty means the heading is missing
	Text      string
	Missing   bool // container never appears

	NextLabel string
	Next      *FakePage
}

// FakeRenderer is primarily used for testing purposes
type FakeRenderer struct {
	Pages   map[string]*FakePage // by URL
	OpenErr error

	mtx    sync.Mutex
	opened int
	closed int
}

func (r *FakeRenderer) Open(_ context.Context) (Session, error) {
	if r.OpenErr != nil {
		return nil, r.OpenErr
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.opened++

	return &fakeSession{renderer: r}, nil
}

// Sessions returns the number of opened and closed sessions
func (r *FakeRenderer) Sessions() (opened, closed int) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.opened, r.closed
}

type fakeSession struct {
	renderer *FakeRenderer
	url      string
	page     *FakePage
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	page, ok := s.renderer.Pages[url]
	if !ok {
		return fmt.Errorf("could not navigate to %s: unexpected status code 404", url)
	}
	s.url = url
	s.page = page
	return nil
}

func (s *fakeSession) PageInfo(_ context.Context) (PageInfo, error) {
	if s.page == nil {
		return PageInfo{}, fmt.Errorf("no page loaded")
	}
	return PageInfo{Title: s.page.Title, URL: s.url}, nil
}

func (s *fakeSession) WaitReady(_ context.Context, timeout time.Duration) error {
	if s.page == nil {
		return fmt.Errorf("no page loaded")
	}
	if s.page.Missing {
		return fmt.Errorf("%w: #%s within %s", ErrNavigationTimeout, ContainerID, timeout)
	}
	return nil
}

func (s *fakeSession) ContainerText(_ context.Context) (string, error) {
	if s.page == nil || s.page.Missing {
		return "", fmt.Errorf("%w: #%s", ErrElementNotFound, ContainerID)
	}
	return s.page.Text, nil
}

func (s *fakeSession) WeekTitle(_ context.Context) (string, error) {
	if s.page == nil || s.page.WeekTitle == "" {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, WeekTitleSelector)
	}
	return s.page.WeekTitle, nil
}

func (s *fakeSession) ClickText(_ context.Context, labels []string, _ time.Duration) (string, error) {
	if s.page != nil && s.page.Next != nil {
		for _, label := range labels {
			if strings.Contains(s.page.NextLabel, label) {
				s.page = s.page.Next
				return label, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrControlNotFound, strings.Join(labels, ", "))
}

func (s *fakeSession) Controls(_ context.Context) ([]string, error) {
	if s.page == nil || s.page.NextLabel == "" {
		return []string{}, nil
	}
	return []string{s.page.NextLabel}, nil
}

func (s *fakeSession) Close() error {
	s.renderer.mtx.Lock()
	defer s.renderer.mtx.Unlock()
	s.renderer.closed++
	return nil
}
