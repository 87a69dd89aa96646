package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/ysmood/gson"
)

type fakeElement struct {
	text     string
	visible  bool
	attrs    map[string]string
	clickErr error
	clicks   int
	onClick  func(el *fakeElement)
}

func (e *fakeElement) Visible() (bool, error) { return e.visible, nil }

func (e *fakeElement) Text() (string, error) { return e.text, nil }

func (e *fakeElement) Attribute(name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

func (e *fakeElement) ScrollIntoView() error { return nil }

func (e *fakeElement) Click(timeout time.Duration) error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	if e.onClick != nil {
		e.onClick(e)
	}
	return nil
}

type fakeSession struct {
	url      string
	html     string
	elements map[string][]*fakeElement

	navErr   error
	bodyErr  error
	htmlErr  error
	idleErr  error
	idleWait int
	noiseErr map[string]error

	heights     []float64
	heightCalls int
	scrollErr   error
	scrolledBy  []float64

	removed []string
	closed  int
}

func (s *fakeSession) Navigate(url string, timeout time.Duration) error { return s.navErr }

func (s *fakeSession) WaitBody(timeout time.Duration) error { return s.bodyErr }

func (s *fakeSession) Elements(css string) ([]Element, error) {
	var els []Element
	for _, el := range s.elements[css] {
		els = append(els, el)
	}
	return els, nil
}

func (s *fakeSession) Eval(js string, args ...any) (gson.JSON, error) {
	switch js {
	case jsRemoveAll:
		sel := args[0].(string)
		if err := s.noiseErr[sel]; err != nil {
			return gson.New(nil), err
		}
		s.removed = append(s.removed, sel)
	case jsScrollHeight:
		if len(s.heights) == 0 {
			return gson.New(1000), nil
		}
		h := s.heights[min(s.heightCalls, len(s.heights)-1)]
		s.heightCalls++
		return gson.New(h), nil
	case jsScrollOffset:
		return gson.New(0), nil
	case jsScrollBy:
		if s.scrollErr != nil {
			return gson.New(nil), s.scrollErr
		}
		s.scrolledBy = append(s.scrolledBy, args[0].(float64))
	default:
		return gson.New(nil), errors.New("unexpected script")
	}
	return gson.New(nil), nil
}

func (s *fakeSession) WaitIdle(timeout time.Duration) error {
	s.idleWait++
	return s.idleErr
}

func (s *fakeSession) URL() string { return s.url }

func (s *fakeSession) HTML() (string, error) { return s.html, s.htmlErr }

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type fakeLauncher struct {
	session *fakeSession
	err     error
	opened  int
}

func (l *fakeLauncher) Open(ctx context.Context) (Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.opened++
	return l.session, nil
}
