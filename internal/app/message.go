// internal/app/message.go
package app

import (
	"fmt"
	"strconv"
	"time"

	"selinggonet_notification_service/internal/domain/subscriber"
)

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// formatPeriod renders the billing period the way the bill template expects
// it, e.g. "Agustus 2026".
func formatPeriod(t time.Time) string {
	return fmt.Sprintf("%s %d", indonesianMonths[t.Month()-1], t.Year())
}

// formatRupiah groups digits with dots per Indonesian convention,
// e.g. 1250000 -> "1.250.000".
func formatRupiah(amount int64) string {
	digits := strconv.FormatInt(amount, 10)
	negative := false
	if digits[0] == '-' {
		negative = true
		digits = digits[1:]
	}

	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, d)
	}
	if negative {
		return "-" + string(out)
	}
	return string(out)
}

// composeBillReminder builds the WhatsApp bill-reminder body: customer
// identity, billing period, formatted amount and the fixed payment
// instructions block.
func composeBillReminder(sub *subscriber.Subscriber, period string, price int64) string {
	code := sub.CustomerCode
	if code == "" {
		code = "-"
	}

	return fmt.Sprintf(`*Informasi Tagihan WiFi Anda*

Hai Bapak/Ibu %s,
ID Pelanggan: %s

Tagihan Anda untuk periode *%s* sebesar *Rp%s* telah jatuh tempo.

*PEMBAYARAN LEBIH MUDAH DENGAN QRIS!*
Scan kode QR di gambar pesan ini menggunakan aplikasi m-banking atau e-wallet Anda (DANA, GoPay, OVO, dll). Pastikan nominal transfer sesuai tagihan.

Untuk pembayaran via QRIS, silakan lihat gambar pada link berikut:
https://bayardong.online/sneat/assets/img/qris.jpeg

Atau transfer manual ke rekening berikut:
• Seabank: 901307925714
• BCA: 3621053653
• BSI: 7211806138
(an. TAUFIQ AZIZ)

Terima kasih atas kepercayaan Anda.
_____________________________
*_Pesan ini dibuat otomatis. Abaikan jika sudah membayar._`,
		sub.FullName, code, period, formatRupiah(price))
}
