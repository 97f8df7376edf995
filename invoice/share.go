package invoice

import (
	"fmt"
	"net/url"
	"strings"

	"billweave-backend/models"
	"billweave-backend/utils"
)

// ShareMessage is the chat message sent to a customer when their bill is ready.
func ShareMessage(bill *models.Bill, shopName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s!\n\n", bill.CustomerName)
	b.WriteString("Your bill is ready:\n")
	fmt.Fprintf(&b, "📋 Bill Number: %s\n", bill.BillNumber)
	fmt.Fprintf(&b, "💰 Total Amount: ₹%s\n", utils.Money(bill.Total))
	fmt.Fprintf(&b, "💳 Amount Paid: ₹%s\n", utils.Money(bill.AmountPaid))
	if bill.AmountDue.IsPositive() {
		fmt.Fprintf(&b, "⚠️ Amount Due: ₹%s\n", utils.Money(bill.AmountDue))
	} else {
		b.WriteString("✅ Fully Paid\n")
	}
	fmt.Fprintf(&b, "\nPayment Status: %s\n\n", strings.ToUpper(string(bill.PaymentStatus)))
	fmt.Fprintf(&b, "Thank you for choosing %s!", shopName)
	return b.String()
}

// ShareURL is a wa.me link that opens a chat with the customer's phone number
// prefilled with ShareMessage.
func ShareURL(bill *models.Bill, shopName string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, bill.CustomerPhone)
	text := strings.ReplaceAll(url.QueryEscape(ShareMessage(bill, shopName)), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + text
}
