package models

import "gorm.io/gorm"

// SafeDeployment holds the custodial account addresses of a trading identity,
// keyed by network name (e.g. "arbitrum").
type SafeDeployment struct {
	gorm.Model
	TradingIdentity string            `gorm:"uniqueIndex;not null" json:"trading_identity"`
	SafeAddresses   map[string]string `gorm:"serializer:json" json:"safe_addresses"`
}

func (SafeDeployment) TableName() string { return "safe_deployments" }
