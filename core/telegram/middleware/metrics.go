package middleware

import tele "gopkg.in/telebot.v4"

const (
	sentKey     = "messages"
	keyboardKey = "kb"
)

// countingContext counts successful sends made through the wrapped context.
type countingContext struct{ tele.Context }

func (m countingContext) record(opts []any) {
	n, _ := m.Get(sentKey).(int)
	m.Set(sentKey, n+1)
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			if v != nil {
				m.Set(keyboardKey, true)
			}
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				m.Set(keyboardKey, true)
			}
		}
	}
}

func (m countingContext) Send(what any, opts ...any) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.record(opts)
	}
	return err
}

func (m countingContext) Reply(what any, opts ...any) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.record(opts)
	}
	return err
}

// MessageMetricsMiddleware wraps the context so handler summaries can report
// how many messages were sent and whether a keyboard was attached.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(sentKey, 0)
		c.Set(keyboardKey, false)
		return next(countingContext{Context: c})
	}
}

// Counters returns the values collected by MessageMetricsMiddleware.
func Counters(c tele.Context) (messages int, keyboard bool) {
	messages, _ = c.Get(sentKey).(int)
	keyboard, _ = c.Get(keyboardKey).(bool)
	return messages, keyboard
}
