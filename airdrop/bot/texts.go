package bot

import (
	"fmt"
	"math"
	"time"
)

const helpText = `📚 Panduan:
/start - Mulai input data
/help - Bantuan
/cancel - Batalkan
/list - Lihat semua airdrop aktif
/list <type> [page] - Filter berdasarkan tipe (contoh: /list Galxe 1)
/list --deadline <date> [page] - Filter berdasarkan deadline (contoh: /list --deadline 2025-12-31 1)
/list --network <network> [page] - Filter berdasarkan network (contoh: /list --network Ethereum 1)
🔍 Format:
- URL harus valid (https://example.com)
- Tipe: Galxe, Testnet, Layer3, Waitlist, Node (case insensitive)
- Deadline: YYYY-MM-DD
- Network: Ethereum, Binance, Polygon, dll. (case insensitive)
- Page: Nomor halaman (opsional, default 1)`

const (
	textListFailed     = "🔧 Gagal memuat daftar airdrop, coba lagi nanti."
	textBackupFailed   = "❌ Gagal membuat backup"
	textAdminOnly      = "⛔ Perintah ini hanya untuk admin."
	textUnknownCommand = "❓ Perintah tidak dikenal. Ketik /help untuk bantuan."
	textIdle           = "Ketik /start untuk menambahkan airdrop atau /help untuk bantuan."
)

func backupDone(name string) string {
	return "✅ Backup berhasil: " + name
}

// waitText tells a rate limited user how long the window is, in whole seconds.
func waitText(interval time.Duration) string {
	secs := int(math.Ceil(interval.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("⏳ Tunggu %d detik", secs)
}
