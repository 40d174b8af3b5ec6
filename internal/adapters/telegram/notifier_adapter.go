package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/core/domain"
	"huizenzoeker/internal/core/port"
)

const apiBaseURL = "https://api.telegram.org"

// NotifierAdapter отправляет уведомления об изменениях объявлений через Telegram Bot API.
// Если токен или chat_id не заданы, адаптер работает в "тихом" режиме и ничего не отправляет.
type NotifierAdapter struct {
	token      string
	chatID     string
	httpClient *http.Client
	baseURL    string
	logger     port.LoggerPort
}

func NewNotifierAdapter(token, chatID string, logger port.LoggerPort) *NotifierAdapter {
	return &NotifierAdapter{
		token:  token,
		chatID: chatID,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: apiBaseURL,
		logger:  logger,
	}
}

// WithBaseURL подменяет адрес Bot API. Нужен для тестов.
func (a *NotifierAdapter) WithBaseURL(baseURL string) *NotifierAdapter {
	a.baseURL = strings.TrimSuffix(baseURL, "/")
	return a
}

// Enabled сообщает, настроен ли адаптер для реальной отправки.
func (a *NotifierAdapter) Enabled() bool {
	return a.token != "" && a.chatID != ""
}

// Notify рассылает сообщения по каждому новому, изменённому и удалённому объявлению,
// а в конце одно сводное сообщение. Ошибка отправки одного сообщения не прерывает остальные.
func (a *NotifierAdapter) Notify(ctx context.Context, result domain.BatchResult) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "TelegramNotifierAdapter",
		"source":    result.Source,
	})

	if !a.Enabled() {
		logger.Debug("Telegram notifier is not configured, skipping", nil)
		return nil
	}

	sent := 0
	failed := 0

	for _, listing := range result.New {
		if err := a.sendMessage(ctx, formatListingMessage(listing, nil, changeNew)); err != nil {
			logger.Error("Failed to send notification for new listing", err, port.Fields{"listing_id": listing.ID})
			failed++
			continue
		}
		sent++
	}

	for _, updated := range result.Updated {
		if err := a.sendMessage(ctx, formatListingMessage(updated.Listing, updated.Diffs, changeUpdated)); err != nil {
			logger.Error("Failed to send notification for updated listing", err, port.Fields{"listing_id": updated.Listing.ID})
			failed++
			continue
		}
		sent++
	}

	for _, listing := range result.Removed {
		if err := a.sendMessage(ctx, formatListingMessage(listing, nil, changeRemoved)); err != nil {
			logger.Error("Failed to send notification for removed listing", err, port.Fields{"listing_id": listing.ID})
			failed++
			continue
		}
		sent++
	}

	if err := a.sendMessage(ctx, formatSummaryMessage(result)); err != nil {
		logger.Error("Failed to send summary notification", err, nil)
		failed++
	} else {
		sent++
	}

	logger.Info("Telegram notifications dispatched", port.Fields{
		"sent":   sent,
		"failed": failed,
	})

	if failed > 0 {
		return fmt.Errorf("failed to send %d of %d telegram messages", failed, sent+failed)
	}
	return nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (a *NotifierAdapter) sendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    a.chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", a.baseURL, a.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	var apiResp sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("failed to decode telegram response: %w", err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, apiResp.Description)
	}
	return nil
}

type changeType int

const (
	changeNew changeType = iota
	changeUpdated
	changeRemoved
)

// formatListingMessage собирает текст уведомления на голландском, как его ожидают подписчики бота.
func formatListingMessage(listing domain.Listing, diffs []domain.FieldChange, kind changeType) string {
	var emoji, title string
	switch kind {
	case changeNew:
		emoji, title = "\U0001F3E0", "Nieuwe woning"
	case changeUpdated:
		emoji, title = "\U0001F504", "Gewijzigde woning"
	case changeRemoved:
		emoji, title = "❌", "Verwijderde woning"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n\n", emoji, title)
	fmt.Fprintf(&b, "*%s*\n%s\n\n", orUnknown(listing.Address, "Onbekend adres"), orUnknown(listing.City, "Onbekende plaats"))
	fmt.Fprintf(&b, "*Prijs:* %s\n", formatEuro(listing.Price))
	if listing.Area != nil {
		fmt.Fprintf(&b, "*Oppervlakte:* %d m²\n", *listing.Area)
	}
	if listing.Rooms != nil {
		fmt.Fprintf(&b, "*Kamers:* %d\n", *listing.Rooms)
	}
	fmt.Fprintf(&b, "*Type:* %s\n", orUnknown(listing.PropertyType, "Onbekend"))

	if kind == changeUpdated && len(diffs) > 0 {
		b.WriteString("\n*Wijzigingen:*\n")
		for _, diff := range diffs {
			fmt.Fprintf(&b, "- %s: %s → %s\n", dutchFieldName(diff.Field), formatFieldValue(diff.Field, diff.Old), formatFieldValue(diff.Field, diff.New))
		}
	}

	if listing.URL != "" {
		fmt.Fprintf(&b, "\n[Bekijk op website](%s)", listing.URL)
	}
	return b.String()
}

func formatSummaryMessage(result domain.BatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\U0001F4CA *Samenvatting (%s)*\n\n", result.Source)
	fmt.Fprintf(&b, "Nieuw: %d\n", len(result.New))
	fmt.Fprintf(&b, "Gewijzigd: %d\n", len(result.Updated))
	fmt.Fprintf(&b, "Verwijderd: %d\n", len(result.Removed))
	return b.String()
}

func dutchFieldName(field string) string {
	switch field {
	case "price":
		return "Prijs"
	case "area":
		return "Oppervlakte"
	case "rooms":
		return "Kamers"
	case "property_type":
		return "Type"
	case "address":
		return "Adres"
	case "city":
		return "Plaats"
	default:
		return field
	}
}

func formatFieldValue(field string, value interface{}) string {
	if value == nil {
		return "-"
	}
	switch field {
	case "price":
		if price, ok := value.(int64); ok {
			return formatEuro(price)
		}
	case "area":
		if area, ok := value.(int); ok {
			return fmt.Sprintf("%d m²", area)
		}
	}
	return fmt.Sprintf("%v", value)
}

// formatEuro печатает цену с точками-разделителями тысяч, как принято в Нидерландах.
func formatEuro(price int64) string {
	digits := fmt.Sprintf("%d", price)
	var b strings.Builder
	b.WriteString("€")
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return b.String()
}

func orUnknown(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
