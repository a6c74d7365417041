package mailer

import "fmt"

func OrderConfirmation(name string, orderNo int64, amount float64, currency string) Message {
	return Message{
		Subject: fmt.Sprintf("PhilaBasket order #%d confirmed", orderNo),
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Thanks for your order <b>#%d</b>. We received %s %.2f and are preparing your specimens for dispatch.</p>",
			name, orderNo, currency, amount),
	}
}

func OrderShipped(name string, orderNo int64, trackingNumber string) Message {
	tracking := ""
	if trackingNumber != "" {
		tracking = fmt.Sprintf("<p>Tracking number: <b>%s</b></p>", trackingNumber)
	}
	return Message{
		Subject: fmt.Sprintf("PhilaBasket order #%d shipped", orderNo),
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your order <b>#%d</b> is on its way.</p>%s",
			name, orderNo, tracking),
	}
}

func OrderDelivered(name string, orderNo int64, points int) Message {
	return Message{
		Subject: fmt.Sprintf("PhilaBasket order #%d delivered", orderNo),
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Your order <b>#%d</b> was delivered. You earned <b>%d PTS</b> on this purchase.</p>",
			name, orderNo, points),
	}
}

func Welcome(name string) Message {
	return Message{
		Subject: "Welcome to PhilaBasket",
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>Welcome to PhilaBasket. Happy collecting!</p>", name),
	}
}

func Bulk(subject, html string) Message {
	return Message{Subject: subject, HTML: html}
}
