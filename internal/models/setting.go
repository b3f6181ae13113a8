package models

import "time"

// PaymentConfigKey names the singleton payment configuration setting.
const PaymentConfigKey = "payment_config"

// SystemSetting represents a persisted key/value configuration entry.
type SystemSetting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedBy *string   `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PaymentConfig is the decoded payment_config value.
type PaymentConfig struct {
	GCashNumber string `json:"gcash_number" validate:"required"`
	QRImageRef  string `json:"qr_image_ref"`
}
