// Package keyboard builds reply keyboards.
package keyboard

import tele "gopkg.in/telebot.v4"

// Remove returns markup that hides a previously shown reply keyboard.
func Remove() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a resized reply keyboard with one button per label.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	kb := make([]tele.Row, 0, len(rows))
	for _, labels := range rows {
		btns := make([]tele.Btn, 0, len(labels))
		for _, l := range labels {
			btns = append(btns, markup.Text(l))
		}
		kb = append(kb, markup.Row(btns...))
	}
	markup.Reply(kb...)
	return markup
}

// OneTime builds a reply keyboard that Telegram hides after the first press.
func OneTime(rows ...[]string) *tele.ReplyMarkup {
	markup := ReplyButtons(rows...)
	markup.OneTimeKeyboard = true
	return markup
}
