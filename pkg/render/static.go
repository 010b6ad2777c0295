package render

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// Static renders server side HTML without running scripts.
// Following a control works only for links.
type Static struct {
	client *http.Client
	logger *logrus.Logger
}

func NewStatic(logger *logrus.Logger) *Static {
	return &Static{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (s *Static) Open(_ context.Context) (Session, error) {
	return &staticSession{
		client: s.client,
		logger: s.logger,
	}, nil
}

type staticSession struct {
	client *http.Client
	logger *logrus.Logger

	url  *url.URL
	root *html.Node
	doc  *goquery.Document
}

func (s *staticSession) Navigate(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not navigate to %s: %w", target, err)
	}
	defer resp.Body.Close() //nolint: errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("could not navigate to %s: unexpected status code %d", target, resp.StatusCode)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return fmt.Errorf("could not parse html from %s: %w", target, err)
	}

	s.url = resp.Request.URL
	s.root = root
	s.doc = goquery.NewDocumentFromNode(root)

	return nil
}

func (s *staticSession) PageInfo(_ context.Context) (PageInfo, error) {
	if s.doc == nil {
		return PageInfo{}, fmt.Errorf("no page loaded")
	}

	return PageInfo{
		Title: strings.TrimSpace(s.doc.Find("title").First().Text()),
		URL:   s.url.String(),
	}, nil
}

// WaitReady only checks the container, a static page never changes
func (s *staticSession) WaitReady(_ context.Context, timeout time.Duration) error {
	if s.doc == nil {
		return fmt.Errorf("no page loaded")
	}
	if s.doc.Find("#"+ContainerID).Length() == 0 {
		return fmt.Errorf("%w: #%s within %s", ErrNavigationTimeout, ContainerID, timeout)
	}
	return nil
}

func (s *staticSession) ContainerText(_ context.Context) (string, error) {
	return s.text("#" + ContainerID)
}

func (s *staticSession) WeekTitle(_ context.Context) (string, error) {
	return s.text(WeekTitleSelector)
}

func (s *staticSession) text(selector string) (string, error) {
	if s.doc == nil {
		return "", fmt.Errorf("no page loaded")
	}

	sel := s.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}

	return VisibleText(sel.Nodes[0]), nil
}

func (s *staticSession) ClickText(ctx context.Context, labels []string, _ time.Duration) (string, error) {
	if s.root == nil {
		return "", fmt.Errorf("no page loaded")
	}

	for _, label := range labels {
		node, err := htmlquery.Query(s.root, containsTextXPath(label))
		if err != nil {
			return "", fmt.Errorf("could not query %q: %w", label, err)
		}
		if node == nil {
			continue
		}

		link := closestLink(node)
		if link == nil {
			s.logger.Debugf("Control %q is not a link", label)
			continue
		}

		href, err := s.url.Parse(htmlquery.SelectAttr(link, "href"))
		if err != nil {
			return "", fmt.Errorf("could not resolve link of %q: %w", label, err)
		}

		if err := s.Navigate(ctx, href.String()); err != nil {
			return "", err
		}

		return strings.TrimSpace(htmlquery.InnerText(node)), nil
	}

	return "", fmt.Errorf("%w: %s", ErrControlNotFound, strings.Join(labels, ", "))
}

func (s *staticSession) Controls(_ context.Context) ([]string, error) {
	if s.root == nil {
		return nil, fmt.Errorf("no page loaded")
	}

	nodes, err := htmlquery.QueryAll(s.root, "//button | //a | //*[@role='button']")
	if err != nil {
		return nil, fmt.Errorf("could not list controls: %w", err)
	}

	texts := make([]string, 0, len(nodes))
	for _, node := range nodes {
		text := strings.TrimSpace(reSpaces.ReplaceAllString(htmlquery.InnerText(node), " "))
		if text != "" {
			texts = append(texts, text)
		}
	}
	return texts, nil
}

func (s *staticSession) Close() error {
	s.root = nil
	s.doc = nil
	return nil
}

func closestLink(node *html.Node) *html.Node {
	for n := node; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.Data == "a" && htmlquery.SelectAttr(n, "href") != "" {
			return n
		}
	}
	return nil
}
