package form

import (
	"fmt"
	"strings"

	"github.com/m3rciful/airdropbot/airdrop"
)

const (
	textStart    = "Halo! Mari tambahkan airdrop baru. Silakan masukkan NAMA:"
	textName     = "❌ Nama tidak boleh kosong! Silakan masukkan NAMA:"
	textTwitter  = "Masukkan LINK TWITTER:"
	textDiscord  = "Masukkan LINK DISCORD:"
	textTelegram = "Masukkan LINK TELEGRAM:"
	textLink     = "Masukkan LINK AIRDROP:"
	textType     = "Pilih TYPE AIRDROP:"
	textDeadline = `Masukkan DEADLINE (contoh: 2025-12-31) atau ketik "skip" jika tidak ada:`
	textReward   = `Masukkan REWARD (contoh: 1000 XYZ) atau ketik "skip" jika tidak ada:`
	textNetwork  = `Masukkan NETWORK (contoh: Ethereum) atau ketik "skip" jika tidak ada:`

	textBadDate = `❌ Format tanggal salah! Gunakan YYYY-MM-DD atau "skip"`

	// TextSaved acknowledges a committed record.
	TextSaved = "✅ Data berhasil disimpan!"
	// TextSaveFailed reports a store failure on commit.
	TextSaveFailed = "🔧 Gagal menyimpan data, coba lagi nanti"
	// TextCancelled answers /cancel and a declined confirmation.
	TextCancelled = "❌ Input dibatalkan"
	// TextNoSession answers /cancel when nothing is in progress.
	TextNoSession = "Tidak ada input yang sedang berlangsung. Ketik /start untuk mulai."
)

// TypeChoices is the keyboard layout offered at the type step.
var TypeChoices = [][]string{
	{"Galxe", "Testnet", "Layer3"},
	{"Waitlist", "Node"},
}

var urlLabels = map[State]string{
	StateTwitter:  "Twitter",
	StateDiscord:  "Discord",
	StateTelegram: "Telegram",
	StateLink:     "Airdrop",
}

func badURL(s State) string {
	return fmt.Sprintf("❌ Format URL %s tidak valid!", urlLabels[s])
}

func orNone(s string) string {
	if s == "" {
		return "Tidak ada"
	}
	return s
}

// summary renders the confirmation text for r.
func summary(r airdrop.Record) string {
	var b strings.Builder
	b.WriteString("Konfirmasi data:\n")
	fmt.Fprintf(&b, "Nama: %s\n", r.Name)
	fmt.Fprintf(&b, "Twitter: %s\n", r.Twitter)
	fmt.Fprintf(&b, "Discord: %s\n", r.Discord)
	fmt.Fprintf(&b, "Telegram: %s\n", r.Telegram)
	fmt.Fprintf(&b, "Link: %s\n", r.Link)
	fmt.Fprintf(&b, "Type: %s\n", r.Type)
	fmt.Fprintf(&b, "Deadline: %s\n", orNone(r.Deadline))
	fmt.Fprintf(&b, "Reward: %s\n", orNone(r.Reward))
	fmt.Fprintf(&b, "Network: %s\n", orNone(r.Network))
	fmt.Fprintf(&b, "Status: %s\n", r.Status)
	b.WriteString("Kirim 'ya' untuk simpan, 'tidak' untuk batalkan")
	return b.String()
}
