package middleware

import tele "gopkg.in/telebot.v4"

// AdminOnly rejects updates whose sender is not adminID. A zero adminID disables the check.
func AdminOnly(adminID int64, onReject tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		if adminID == 0 {
			return next
		}
		return func(c tele.Context) error {
			if u := c.Sender(); u != nil && u.ID == adminID {
				return next(c)
			}
			if onReject != nil {
				return onReject(c)
			}
			return nil
		}
	}
}
