package model

import "time"

// WalletBalance 锁仓地址的最新余额，每个地址一条记录
type WalletBalance struct {
	Wallet      string    `gorm:"column:wallet;primaryKey" json:"wallet"`
	Balance     string    `gorm:"column:balance;type:decimal(65,0);not null" json:"balance"`
	LastUpdated time.Time `gorm:"column:last_updated;not null" json:"last_updated"`
}

func (WalletBalance) TableName() string {
	return "circ_wallet_balances"
}
