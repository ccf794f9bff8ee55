package models

// Owner is the account an inventory belongs to. Authentication lives outside
// this module, so only the identity is stored.
type Owner struct {
	Base
	Username string          `gorm:"uniqueIndex;not null" json:"username"`
	Items    []InventoryItem `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}
