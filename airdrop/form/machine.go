package form

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/m3rciful/airdropbot/airdrop"
	"github.com/m3rciful/airdropbot/core/logger"
	"github.com/m3rciful/airdropbot/core/telegram/state"
)

// DefaultTimeout is how long an untouched session survives.
const DefaultTimeout = 600 * time.Second

// Committer persists a confirmed record.
type Committer interface {
	Append(ctx context.Context, r airdrop.Record) error
}

// Options configures New.
type Options struct {
	Committer Committer
	// Timeout is the inactivity limit; zero selects DefaultTimeout.
	Timeout time.Duration
	// Now is the clock used for idle tracking; nil selects time.Now.
	Now func() time.Time
}

type session struct {
	mu    sync.Mutex
	state State
	rec   airdrop.Record
}

// Machine holds one session per user and applies their messages in order.
type Machine struct {
	committer Committer
	timeout   time.Duration
	sessions  *state.Store[*session]
}

// New returns a Machine with no sessions.
func New(opts Options) *Machine {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Machine{
		committer: opts.Committer,
		timeout:   opts.Timeout,
		sessions:  state.NewStore[*session](opts.Now),
	}
}

// Timeout returns the inactivity limit.
func (m *Machine) Timeout() time.Duration { return m.timeout }

// Start opens a session for userID at the name step. A user who already has
// a session gets its current prompt again and keeps their progress.
func (m *Machine) Start(ctx context.Context, userID int64) Reply {
	if s, ok := m.sessions.Touch(userID); ok {
		s.mu.Lock()
		st, rec := s.state, s.rec
		s.mu.Unlock()
		if !st.Terminal() {
			logger.LogEvent(ctx, logger.Form, slog.LevelDebug, "form.resume", slog.String("state", st.String()))
			return prompt(st, rec)
		}
	}
	s := &session{state: StateName, rec: airdrop.Record{UserID: strconv.FormatInt(userID, 10)}}
	m.sessions.Put(userID, s)
	logger.LogEvent(ctx, logger.Form, slog.LevelInfo, "form.start", slog.String("state", StateName.String()))
	r := prompt(StateName, s.rec)
	r.RemoveKeyboard = true
	return r
}

// Active reports whether userID has a session in progress. A session that
// already reached its end step is not active.
func (m *Machine) Active(userID int64) bool {
	_, ok := m.State(userID)
	return ok
}

// State returns the current step of userID's session.
func (m *Machine) State(userID int64) (State, bool) {
	s, ok := m.sessions.Get(userID)
	if !ok {
		return StateEnd, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, !s.state.Terminal()
}

// Len returns the number of open sessions.
func (m *Machine) Len() int { return m.sessions.Len() }

// Handle applies text to userID's session. It reports false when the user
// has no session.
func (m *Machine) Handle(ctx context.Context, userID int64, text string) (Reply, bool) {
	s, ok := m.sessions.Touch(userID)
	if !ok {
		return Reply{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return Reply{}, false
	}
	if s.state == StateConfirm {
		return m.confirm(ctx, userID, s, text), true
	}
	from := s.state
	r := s.apply(text)
	logger.LogEvent(ctx, logger.Form, slog.LevelDebug, "form.step",
		slog.String("op", from.String()),
		slog.String("state", r.State.String()),
	)
	return r, true
}

// Cancel discards userID's session. It reports false when there was none.
func (m *Machine) Cancel(ctx context.Context, userID int64) (Reply, bool) {
	s, ok := m.sessions.Get(userID)
	if !ok {
		return Reply{Text: TextNoSession, State: StateEnd}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return Reply{Text: TextNoSession, State: StateEnd}, false
	}
	from := s.state
	m.end(userID, s)
	logger.LogEvent(ctx, logger.Form, slog.LevelInfo, "form.cancel",
		slog.String("op", from.String()),
		slog.String("outcome", OutcomeCancelled),
	)
	return Reply{Text: TextCancelled, RemoveKeyboard: true, State: StateEnd, Outcome: OutcomeCancelled}, true
}

// EvictIdle drops sessions untouched for the timeout and returns how many
// were dropped. Evicted users are not notified.
func (m *Machine) EvictIdle(ctx context.Context) int {
	evicted := m.sessions.EvictIdle(m.timeout)
	for userID, s := range evicted {
		s.mu.Lock()
		from := s.state
		s.state = StateEnd
		s.mu.Unlock()
		logger.LogEvent(logger.WithUpdateMeta(ctx, 0, userID, 0), logger.Form, slog.LevelInfo, "form.expire",
			slog.String("op", from.String()),
			slog.String("outcome", OutcomeExpired),
		)
	}
	return len(evicted)
}

// end marks s finished and removes it unless it was already replaced.
func (m *Machine) end(userID int64, s *session) {
	s.state = StateEnd
	m.sessions.CompareAndDelete(userID, func(v *session) bool { return v == s })
}

func (m *Machine) confirm(ctx context.Context, userID int64, s *session, text string) Reply {
	m.end(userID, s)
	done := Reply{RemoveKeyboard: true, State: StateEnd}
	if !strings.EqualFold(strings.TrimSpace(text), "ya") {
		logger.LogEvent(ctx, logger.Form, slog.LevelInfo, "form.confirm", slog.String("outcome", OutcomeDeclined))
		done.Text, done.Outcome = TextCancelled, OutcomeDeclined
		return done
	}
	start := time.Now()
	var err error
	if m.committer == nil {
		err = errNoCommitter
	} else {
		err = m.committer.Append(ctx, s.rec)
	}
	if err != nil {
		logger.LogEvent(ctx, logger.Form, slog.LevelError, "form.confirm",
			slog.String("status", "error"),
			slog.String("outcome", OutcomeFailed),
			slog.Duration("duration", logger.Took(start)),
			logger.Err(err),
		)
		done.Text, done.Outcome = TextSaveFailed, OutcomeFailed
		return done
	}
	logger.LogEvent(ctx, logger.Form, slog.LevelInfo, "form.confirm",
		slog.String("status", "ok"),
		slog.String("outcome", OutcomeCommitted),
		slog.Duration("duration", logger.Took(start)),
	)
	done.Text, done.Outcome = TextSaved, OutcomeCommitted
	return done
}

// apply consumes one answer for every step before confirmation.
func (s *session) apply(text string) Reply {
	in := strings.TrimSpace(text)
	switch s.state {
	case StateName:
		if in == "" {
			return s.retry(textName)
		}
		s.rec.Name = in
	case StateTwitter, StateDiscord, StateTelegram, StateLink:
		if !airdrop.IsValidURL(in) {
			return s.retry(badURL(s.state))
		}
		s.setURL(in)
	case StateType:
		s.rec.Type = in
	case StateDeadline:
		v := strings.ToLower(in)
		if v == "skip" {
			v = ""
		} else if _, err := time.Parse(airdrop.DateLayout, v); err != nil {
			return s.retry(textBadDate)
		}
		s.rec.Deadline = v
	case StateReward:
		v := strings.ToLower(in)
		if v == "skip" {
			v = ""
		}
		s.rec.Reward = v
	case StateNetwork:
		if strings.EqualFold(in, "skip") {
			in = ""
		}
		s.rec.Network = upperFirst(in)
		s.rec.Status = airdrop.StatusActive
	}
	s.state++
	return prompt(s.state, s.rec)
}

func (s *session) setURL(u string) {
	switch s.state {
	case StateTwitter:
		s.rec.Twitter = u
	case StateDiscord:
		s.rec.Discord = u
	case StateTelegram:
		s.rec.Telegram = u
	case StateLink:
		s.rec.Link = u
	}
}

func (s *session) retry(text string) Reply {
	return Reply{Text: text, State: s.state}
}

// prompt is the question asked on entering st.
func prompt(st State, rec airdrop.Record) Reply {
	r := Reply{State: st}
	switch st {
	case StateName:
		r.Text = textStart
	case StateTwitter:
		r.Text = textTwitter
	case StateDiscord:
		r.Text = textDiscord
	case StateTelegram:
		r.Text = textTelegram
	case StateLink:
		r.Text = textLink
	case StateType:
		r.Text, r.Choices = textType, TypeChoices
	case StateDeadline:
		r.Text, r.RemoveKeyboard = textDeadline, true
	case StateReward:
		r.Text = textReward
	case StateNetwork:
		r.Text = textNetwork
	case StateConfirm:
		r.Text = summary(rec)
	}
	return r
}

// upperFirst uppercases the first rune and keeps the rest as typed.
func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
