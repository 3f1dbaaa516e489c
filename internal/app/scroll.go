package app

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/readscroll/internal/extract"
	"github.com/hyperifyio/readscroll/internal/pager"
	"github.com/hyperifyio/readscroll/internal/scroll"
	"github.com/hyperifyio/readscroll/internal/session"
)

// speedStep is the change applied by the + and - commands.
const speedStep = 10

// runScroll shows the article in the auto-scrolling pager and reads one
// command per line from Stdin:
//
//	<n>     set speed to n (0 stops)
//	+ / -   speed up or slow down
//	e / l   pointer enters or leaves the content
//	c       quick click
//	p       pause or resume
//	s       log the scroll state
//	{...}   a session message as JSON
//	q       quit
//
// When Stdin ends the pager keeps scrolling until it stops or ctx is done.
func (a *App) runScroll(ctx context.Context, src []byte, ex extract.Extractor) error {
	p := pager.New(src, a.Stdout, pager.Options{Width: a.cfg.ScrollWidth, Rows: a.cfg.ScrollRows})
	idle := make(chan struct{}, 1)
	sess := session.New(session.Options{
		Page:      p,
		Presenter: p,
		Extractor: ex,
		Store:     a.store,
		Scheduler: a.Scheduler,
		OnScroll: func(st scroll.State) {
			log.Debug().Str("phase", st.Phase.String()).Str("label", st.Label).Msg("scroll")
			if st.Phase != scroll.Scrolling {
				select {
				case idle <- struct{}{}:
				default:
				}
			}
		},
	})
	defer func() {
		if err := sess.Disable(); err != nil {
			log.Warn().Err(err).Msg("disable reader mode")
		}
	}()

	if err := sess.Enable(ctx); err != nil {
		return err
	}
	ctrl := sess.Controller()
	if ctrl == nil {
		return ErrNoContent
	}
	if a.cfg.ScrollSpeed > 0 {
		ctrl.SetSpeed(a.cfg.ScrollSpeed)
	}

	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(a.Stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-stop:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return waitIdle(ctx, sess, idle)
			}
			if quit := a.command(ctx, sess, p, line); quit {
				return nil
			}
		}
	}
}

// waitIdle blocks while the session is scrolling.
func waitIdle(ctx context.Context, sess *session.Session, idle <-chan struct{}) error {
	for scrolling(sess) {
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func scrolling(sess *session.Session) bool {
	ctrl := sess.Controller()
	return ctrl != nil && ctrl.State().Phase == scroll.Scrolling
}

// command applies one input line and reports whether to quit.
func (a *App) command(ctx context.Context, sess *session.Session, p *pager.Pager, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, "{") {
		resp := sess.HandleJSON(ctx, []byte(line))
		log.Info().RawJSON("response", resp).Msg("message handled")
		return false
	}
	if strings.EqualFold(line, "q") || strings.EqualFold(line, "quit") {
		return true
	}
	// The controller is replaced when a message re-enables reader mode.
	ctrl := sess.Controller()
	if ctrl == nil {
		log.Warn().Str("command", line).Msg("reader mode is off")
		return false
	}
	if n, err := strconv.Atoi(line); err == nil {
		ctrl.SetSpeed(n)
		return false
	}
	switch strings.ToLower(line) {
	case "+":
		ctrl.SetSpeed(currentSpeed(ctrl.State()) + speedStep)
	case "-":
		ctrl.SetSpeed(currentSpeed(ctrl.State()) - speedStep)
	case "e", "enter":
		ctrl.MouseEnter()
	case "l", "leave":
		ctrl.MouseLeave()
	case "c", "click":
		ctrl.Click()
	case "p", "pause":
		ctrl.DoPauseStopOrResume(scroll.Pause)
	case "s", "status":
		st := ctrl.State()
		printed, total := p.Position()
		log.Info().Str("phase", st.Phase.String()).Str("label", st.Label).Int("value", st.Value).
			Str("lines", fmt.Sprintf("%d/%d", printed, total)).Msg("status")
	default:
		log.Warn().Str("command", line).Msg("unknown command")
	}
	return false
}

// currentSpeed is the slider value, or the remembered one while halted.
func currentSpeed(st scroll.State) int {
	if st.Value > 0 {
		return st.Value
	}
	return st.ResumeValue
}
