package model

import "time"

// SupplySnapshot 一次运行的供应量快照，所有数量均为 base units 的十进制字符串
type SupplySnapshot struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement:true" json:"-"`
	Ts                time.Time `gorm:"column:ts;not null;index" json:"ts"`
	TotalSupply       string    `gorm:"column:total_supply;type:decimal(65,0);not null" json:"total_supply"`
	LockedBalance     string    `gorm:"column:locked_balance;type:decimal(65,0);not null" json:"locked_balance"`
	CirculatingSupply string    `gorm:"column:circulating_supply;type:decimal(65,0);not null" json:"circulating_supply"`
}

func (SupplySnapshot) TableName() string {
	return "circ_supply"
}
