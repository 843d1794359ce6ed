package alerts

import (
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/dmarchetti/scanventory/internal/config"
	"github.com/dmarchetti/scanventory/internal/models"
	"github.com/dmarchetti/scanventory/internal/redissvc"
)

var (
	cfg config.AlertsConfig
	rs  *redissvc.RedisService
)

func Configure(c config.AlertsConfig) {
	cfg = c
}

func SetRedisService(service *redissvc.RedisService) {
	rs = service
}

// LowStockAlert fires when an adjustment drops a product below its
// threshold. The email goes out asynchronously; the event is also appended
// to the Redis alert log for the daily summary.
func LowStockAlert(product models.Product) {
	if cfg.SMTPServer == "" {
		zap.L().Warn("low stock, alerts not configured",
			zap.Int("product_id", product.ID),
			zap.String("name", product.Name),
			zap.Int("quantity", product.Quantity),
			zap.Int("threshold", product.Threshold))
		logAlertEvent(product)
		return
	}

	subject := fmt.Sprintf("LOW STOCK: %s", product.Name)
	body := fmt.Sprintf("Product: %s (sku %s)\nQuantity: %d\nThreshold: %d\nTime: %s",
		product.Name, product.SKU, product.Quantity, product.Threshold,
		time.Now().Format(time.RFC3339))

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		cfg.From, cfg.To, subject, body)

	addr := fmt.Sprintf("%s:%s", cfg.SMTPServer, cfg.SMTPPort)
	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPServer)
	if cfg.AuthDisabled {
		auth = nil
	}

	go func() {
		if err := smtp.SendMail(addr, auth, cfg.From, []string{cfg.To}, []byte(msg)); err != nil {
			zap.L().Error("failed to send low stock alert", zap.Error(err))
		}
	}()

	logAlertEvent(product)
}

type AlertLogEntry struct {
	ProductID int       `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Threshold int       `json:"threshold"`
	Time      time.Time `json:"time"`
}

const DailyAlertLogKey = "alerts:lowstock:daily"

func logAlertEvent(product models.Product) {
	if rs == nil {
		return
	}
	entry := AlertLogEntry{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  product.Quantity,
		Threshold: product.Threshold,
		Time:      time.Now(),
	}
	data, _ := json.Marshal(entry)
	if err := rs.Rdb().RPush(rs.Ctx(), DailyAlertLogKey, data).Err(); err != nil {
		zap.L().Warn("failed to log alert event", zap.Error(err))
	}
}

// StartDailySummary emails a digest of the day's low-stock alerts on the
// given interval and clears the log. Runs forever; call in a goroutine.
func StartDailySummary(interval time.Duration) {
	for {
		time.Sleep(interval)
		sendSummary()
	}
}

func sendSummary() {
	if rs == nil {
		return
	}

	entries, err := rs.Rdb().LRange(rs.Ctx(), DailyAlertLogKey, 0, -1).Result()
	if err != nil {
		zap.L().Warn("failed to read alert log", zap.Error(err))
		return
	}
	if len(entries) == 0 {
		return
	}

	body := fmt.Sprintf("%d low-stock alerts in the last period:\n\n", len(entries))
	for _, raw := range entries {
		var e AlertLogEntry
		if json.Unmarshal([]byte(raw), &e) == nil {
			body += fmt.Sprintf("- %s: %d on hand (threshold %d) at %s\n",
				e.Name, e.Quantity, e.Threshold, e.Time.Format(time.RFC3339))
		}
	}

	if cfg.SMTPServer != "" {
		subject := "Daily low-stock summary"
		msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
			cfg.From, cfg.To, subject, body)
		addr := fmt.Sprintf("%s:%s", cfg.SMTPServer, cfg.SMTPPort)
		auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPServer)
		if cfg.AuthDisabled {
			auth = nil
		}
		if err := smtp.SendMail(addr, auth, cfg.From, []string{cfg.To}, []byte(msg)); err != nil {
			zap.L().Error("failed to send daily summary", zap.Error(err))
			return
		}
	} else {
		zap.L().Info("daily low-stock summary", zap.String("body", body))
	}

	rs.Rdb().Del(rs.Ctx(), DailyAlertLogKey)
}
