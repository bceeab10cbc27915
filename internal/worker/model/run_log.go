package model

import "time"

type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
)

// RunLog is appended once per run attempt and never updated.
type RunLog struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement:true" json:"-"`
	Ts                time.Time `gorm:"column:ts;not null;index" json:"ts"`
	Status            RunStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	TotalSupply       string    `gorm:"column:total_supply;type:decimal(65,0)" json:"total_supply"`
	LockedBalance     string    `gorm:"column:locked_balance;type:decimal(65,0)" json:"locked_balance"`
	CirculatingSupply string    `gorm:"column:circulating_supply;type:decimal(65,0)" json:"circulating_supply"`
	WalletsChecked    int       `gorm:"column:wallets_checked" json:"wallets_checked"`
	RPCCalls          int64     `gorm:"column:rpc_calls" json:"rpc_calls"`
	Error             *string   `gorm:"column:error" json:"error"`
}

func (RunLog) TableName() string {
	return "circ_log"
}
