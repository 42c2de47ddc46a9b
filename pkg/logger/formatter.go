package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// CustomJSONFormatter writes one flat JSON object per entry with app and
// version stamped on every line.
type CustomJSONFormatter struct {
	TimestampFormat string
	PrettyPrint     bool
	AppName         string
	Version         string
}

func (f *CustomJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Data)+6)

	for k, v := range entry.Data {
		switch v := v.(type) {
		case error:
			data[k] = v.Error()
		default:
			data[k] = v
		}
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = time.RFC3339
	}
	data["timestamp"] = entry.Time.Format(timestampFormat)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message

	if f.AppName != "" {
		data["app"] = f.AppName
	}
	if f.Version != "" {
		data["version"] = f.Version
	}

	if entry.HasCaller() {
		data["caller"] = fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line)
	}

	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	encoder := json.NewEncoder(b)
	if f.PrettyPrint {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(data); err != nil {
		return nil, fmt.Errorf("failed to marshal fields to JSON: %w", err)
	}

	return b.Bytes(), nil
}

// AuditLogger records admin actions that change bookings or settings.
type AuditLogger struct {
	logger *Logger
}

func NewAuditLogger(logger *Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger.WithField("type", "audit"),
	}
}

func (a *AuditLogger) LogAdminAction(adminID, action, resource string, details map[string]interface{}) {
	fields := map[string]interface{}{
		"admin_id": adminID,
		"action":   action,
		"resource": resource,
	}

	for k, v := range details {
		fields[k] = v
	}

	a.logger.WithFields(fields).Info("Admin action performed")
}

func (a *AuditLogger) LogSettingsChange(adminID string, before, after interface{}) {
	a.logger.WithFields(map[string]interface{}{
		"admin_id": adminID,
		"action":   "settings_update",
		"before":   before,
		"after":    after,
	}).Info("Settings changed")
}
