package nftmetadata

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const pageTimeout = 60 * time.Second

// Browser is a PageFetcher backed by a local Chromium driven over CDP.
type Browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func NewBrowser(ctx context.Context, headless bool) (*Browser, error) {
	l := launcher.New().Headless(headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	return &Browser{launcher: l, browser: b}, nil
}

// Text opens pageURL in a fresh tab with stylesheets, fonts and images blocked.
func (b *Browser) Text(ctx context.Context, pageURL, selector string) (string, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		switch h.Request.Type() {
		case proto.NetworkResourceTypeStylesheet, proto.NetworkResourceTypeFont, proto.NetworkResourceTypeImage:
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		default:
			h.ContinueRequest(&proto.FetchContinueRequest{})
		}
	})
	go router.Run()
	defer func() { _ = router.Stop() }()

	p := page.Context(ctx).Timeout(pageTimeout)
	defer p.CancelTimeout()
	if err := p.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", pageURL, err)
	}
	el, err := p.Element(selector)
	if err != nil {
		return "", fmt.Errorf("find %q on %s: %w", selector, pageURL, err)
	}
	return el.Text()
}

func (b *Browser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	return err
}
