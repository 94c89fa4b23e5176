// Package commands describes bot commands independent of how they are routed.
package commands

import tele "gopkg.in/telebot.v4"

// Command binds a slash command to its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are hidden from the menu and rejected for non-admins
	// when an admin id is configured.
	AdminOnly bool
	Hidden    bool
	Aliases   []string
}

// Visible reports whether the command belongs in the public command menu.
func (c Command) Visible() bool {
	return !c.Hidden && !c.AdminOnly
}
