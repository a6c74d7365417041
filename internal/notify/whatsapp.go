package notify

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"philabasket/internal/config"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// SendWhatsApp fires an order notification through the Twilio messages API.
// It is best-effort: callers run it in a goroutine and failures only log.
func SendWhatsApp(to, body string) {
	env := config.AppEnv
	if env.TwilioAccountSID == "" || env.TwilioAuthToken == "" || env.TwilioWhatsAppFrom == "" {
		return
	}
	if strings.TrimSpace(to) == "" {
		return
	}

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", env.TwilioAccountSID)
	form := url.Values{}
	form.Set("From", "whatsapp:"+env.TwilioWhatsAppFrom)
	form.Set("To", "whatsapp:"+to)
	form.Set("Body", body)

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		log.Println("[NOTIFY] [ERROR] whatsapp request build failed:", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(env.TwilioAccountSID, env.TwilioAuthToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		log.Println("[NOTIFY] [ERROR] whatsapp send failed:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("[NOTIFY] [ERROR] whatsapp send returned %d for %s", resp.StatusCode, to)
		return
	}
	log.Println("[NOTIFY] [INFO] whatsapp notification sent to", to)
}
